// Package console renders the user-facing side of a run: the share
// contents report, confirmation and password prompts, and the per-file
// progress line.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/azmtag/nextcloud-share-downloader/internal/plan"
	"github.com/azmtag/nextcloud-share-downloader/internal/progress"
)

// Width returns the terminal width, or a 160-column fallback when
// stdout is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 160
	}
	return w
}

// FormatPath fits a path into a fixed-width column: short paths are
// right-padded, long ones keep their tail behind a leading ellipsis.
func FormatPath(path string, width int) string {
	if len(path) < width {
		return path + strings.Repeat(" ", width-len(path))
	}
	return "..." + path[len(path)-width+3:]
}

// ReadPassword prompts for the share password without echoing it.
func ReadPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Confirm asks a yes/no question and keeps asking until it gets an
// answer. An empty reply picks the default.
func Confirm(in io.Reader, question string, defaultYes bool) (bool, error) {
	valid := map[string]bool{"yes": true, "ye": true, "y": true, "no": false, "n": false}
	suffix := " [y/N] "
	if defaultYes {
		suffix = " [Y/n] "
	}

	reader := bufio.NewReader(in)
	for {
		fmt.Print(question + suffix)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		if choice == "" {
			return defaultYes, nil
		}
		if answer, ok := valid[choice]; ok {
			return answer, nil
		}
		fmt.Println("Please respond with 'yes' or 'no' (or 'y' or 'n').")
	}
}

// PrintReport lists the reconciled share contents by bucket.
func PrintReport(p *plan.Plan, pathWidth int) {
	if len(p.Existing) > 0 {
		fmt.Println("\nExisting files:\n---------------")
		for _, f := range p.Existing {
			fmt.Printf("%s %-12s %-34s %-40s\n",
				FormatPath(f.Path, pathWidth), progress.FormatBytes(f.Size()), f.LastModified, f.ContentType)
		}
	}

	if len(p.New) > 0 {
		fmt.Println("\nNew files:\n----------")
		for _, f := range p.New {
			fmt.Printf("%s %-12s %-34s %-40s\n",
				FormatPath(f.Path, pathWidth), progress.FormatBytes(f.Size()), f.LastModified, f.ContentType)
		}
	}

	if len(p.Mismatched) > 0 {
		fmt.Println("\nFiles with unexpected size:\n---------------------------")
		for _, f := range p.Mismatched {
			sizes := fmt.Sprintf("%s / %s", progress.FormatBytes(f.LocalSize), progress.FormatBytes(f.Size()))
			fmt.Printf("%s %-20s %-34s %-40s\n",
				FormatPath(f.Path, pathWidth-8), sizes, f.LastModified, f.ContentType)
		}
	}
	fmt.Println()
}
