// Package knowledge provides the offline collaborators backing the execution
// graph: a loam-backed document corpus, a keyword retriever, a rule-based
// intent classifier and a template synthesizer. All of them are deterministic
// so behavior is reproducible in tests and demos; swapping in model-backed
// implementations only requires satisfying the ports interfaces.
package knowledge
