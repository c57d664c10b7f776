/*
Package bayes implements exact Bayesian parameter estimation for first-order,
finite-state, fully observed Markov chains.

Given an observed sequence of state labels and Dirichlet priors over the
initial-state distribution and each row of the transition matrix, the package
computes the exact posterior distributions over those parameters and the log
marginal likelihood (model evidence) of the sequence. Because every state is
directly observed, the categorical-with-Dirichlet-prior model is conjugate and
the posterior is available in closed form: the update is a pure count
addition, with no iterative solver involved.

The update path is pluggable through the Strategy interface so that an
approximate-inference implementation can be substituted if partially observed
chains ever need support; ExactConjugate is the default and the only strategy
shipped here.
*/
package bayes
