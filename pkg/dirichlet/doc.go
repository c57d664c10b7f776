/*
Package dirichlet provides the Dirichlet parameter vectors used throughout
the estimation toolkit: validation of pseudo-count vectors, posterior-mean
extraction, and the log-space Dirichlet-multinomial marginal likelihood.

All evidence arithmetic is carried out in log-space so that long observation
sequences cannot overflow or underflow intermediate results.
*/
package dirichlet
