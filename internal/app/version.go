package app

const ServiceName = "student-manager"

// Set with -ldflags at build time:
//
//	go build -ldflags="-X 'student-manager/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
