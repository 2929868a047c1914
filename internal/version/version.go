package version

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/tunevest/songshare-ledger/internal/version.Version=v1.2.3".
var Version = "dev"
