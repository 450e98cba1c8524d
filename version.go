package assist

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/zweadfx/assist.Version=...".
var Version = "0.1.0"
