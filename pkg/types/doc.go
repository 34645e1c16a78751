/*
Package types holds the declarations shared by the Ember kernel and the
engines built on top of it: the event descriptor handed to handlers, the
attribute bits that tag a topic's payload kind, the state-handler return
codes, and the built-in topics of the state machine protocol.

Keeping these in a leaf package lets pkg/kernel, pkg/actor and application
code agree on the wire-level contract without import cycles.
*/
package types
