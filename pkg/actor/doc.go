/*
Package actor provides the two programming models layered on the kernel's
event bus: the flat Reactor, whose task loop feeds every event to one
handler function, and the hierarchical state machine SM, which dispatches
events up the superstate chain and performs LCA-ordered entry/exit on
transitions.

State handlers follow the QP convention: asked with the null probe they
store their parent via Super and return RetSuper; a transition stores its
target via Tran. The engine discovers ancestry purely through this
protocol, so states are plain functions with no registration step.
*/
package actor
