package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/logger"
)

// Updater replaces the running binary with the latest GitHub release.
type Updater struct {
	Repo    string
	Current string
	// Detect and Apply default to the selfupdate package.
	Detect func(repo string) (*selfupdate.Release, bool, error)
	Apply  func(assetURL, exe string) error
	In     io.Reader
	Out    io.Writer
	// Yes skips the confirmation prompt.
	Yes bool
}

func (a *App) updateCommand() *cobra.Command {
	u := &Updater{Repo: Repo, Current: Version}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update magickfx to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u.In, u.Out = cmd.InOrStdin(), cmd.OutOrStdout()
			return u.Run()
		},
	}
	cmd.Flags().BoolVarP(&u.Yes, "yes", "y", false, "update without asking")
	return cmd
}

// Run checks for a newer release and installs it after confirmation.
func (u *Updater) Run() error {
	detect, apply := u.Detect, u.Apply
	if detect == nil {
		detect = selfupdate.DetectLatest
	}
	if apply == nil {
		apply = selfupdate.UpdateTo
	}

	fmt.Fprintf(u.Out, "Current version: %s\n", u.Current)
	latest, found, err := detect(u.Repo)
	if err != nil {
		return errors.Wrap(err, "update check failed")
	}
	if !found || latest == nil {
		fmt.Fprintf(u.Out, "No releases found for %s.\n", u.Repo)
		return nil
	}
	fmt.Fprintf(u.Out, "Latest version: %s\n", latest.Version)

	current, perr := semver.ParseTolerant(u.Current)
	if perr != nil {
		logger.Warnf("could not parse current version %q: %v", u.Current, perr)
	} else if latest.Version.LTE(current) {
		fmt.Fprintf(u.Out, "You are already running the latest version: %s.\n", current)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(u.Out, "A new version (%s) is available but there is no downloadable asset for this platform.\n", latest.Version)
		return nil
	}

	if !u.Yes {
		answer, err := promptLine(u.In, u.Out, fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
		if err != nil {
			return errors.Wrap(err, "reading answer")
		}
		answer = strings.ToLower(answer)
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(u.Out, "Update cancelled.")
			return nil
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "could not locate executable")
	}
	fmt.Fprintln(u.Out, "Updating...")
	if err := apply(latest.AssetURL, exe); err != nil {
		return errors.Wrap(err, "update failed")
	}
	fmt.Fprintf(u.Out, "Updated to version %s.\n", latest.Version)
	return nil
}

func promptLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
