package types

// Version is overwritten at build time via -ldflags
var Version = "dev"

// ServiceName is used in health responses and logs
const ServiceName = "itsgate"
