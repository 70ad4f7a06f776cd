// Command gamepin manages a game catalog: resolving noisy titles to stable
// provider ids, diagnosing cross-provider disagreement, and applying the
// conservative repin policy to pins the diagnostics flag as wrong.
package main
