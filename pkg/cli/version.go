package cli

// Version is the release of this binary. Release builds override it with
// -ldflags "-X github.com/milahu/imagemagick-scripts-sub003/pkg/cli.Version=x.y.z".
var Version = "0.1.0"

// Repo is the GitHub repository the updater checks for releases.
const Repo = "milahu/imagemagick-scripts-sub003"
