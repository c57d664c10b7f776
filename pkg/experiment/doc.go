/*
Package experiment persists estimation runs in a SQLite database: the
observed chain, the prior and posterior Dirichlet vectors, and the resulting
log evidence. Runs can be listed, reloaded for further analysis, deleted, and
exported to or imported from JSON for transfer between databases.

The package holds no inference logic; it stores what pkg/bayes produces and
rehydrates it through that package's validating constructors.
*/
package experiment
