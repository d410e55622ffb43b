// ncdownloader mirrors a password-protected Nextcloud/ownCloud public
// share to local disk.
//
// Usage:
//
//	ncdownloader [flags] <share-url>
//
// The share URL looks like https://cloud.example.org/s/<token>, with an
// optional ?path= query for a subdirectory. Re-running with -resume
// re-fetches only files whose local size differs from the share.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/azmtag/nextcloud-share-downloader/internal/console"
	"github.com/azmtag/nextcloud-share-downloader/internal/dav"
	"github.com/azmtag/nextcloud-share-downloader/internal/logging"
	"github.com/azmtag/nextcloud-share-downloader/internal/plan"
	"github.com/azmtag/nextcloud-share-downloader/internal/progress"
	"github.com/azmtag/nextcloud-share-downloader/internal/share"
	"github.com/azmtag/nextcloud-share-downloader/internal/transfer"
)

type globFlags []string

func (g *globFlags) String() string { return strings.Join(*g, ", ") }

func (g *globFlags) Set(v string) error {
	*g = append(*g, v)
	return nil
}

type options struct {
	url      string
	yes      bool
	password string
	prompt   bool
	output   string
	resume   bool
	globs    globFlags
}

func parseFlags() (options, error) {
	var opts options
	flag.BoolVar(&opts.yes, "y", false, "Answer any confirmation with yes automatically")
	flag.StringVar(&opts.password, "password", "", "Password for a protected share")
	flag.BoolVar(&opts.prompt, "password-prompt", false, "Prompt for the password for a protected share")
	flag.StringVar(&opts.output, "o", ".", "Output dir")
	flag.BoolVar(&opts.resume, "resume", false, "Resume a previous download")
	flag.Var(&opts.globs, "g", "Glob pattern for filtering files by their destination path (repeatable)")
	verbosity := flag.Int("v", 1, "Verbosity level: 0=quiet, 1=info, 2=debug")
	flag.Parse()

	switch *verbosity {
	case 0:
		logging.Init(logging.Config{Level: "error"})
	case 1:
		logging.Init(logging.Config{Level: "info"})
	default:
		logging.Init(logging.Config{Level: "debug"})
	}

	if flag.NArg() < 1 {
		flag.Usage()
		return opts, fmt.Errorf("share url required as positional argument")
	}
	opts.url = flag.Arg(0)

	if opts.password == "" {
		opts.password = os.Getenv("NCDOWNLOADER_PASSWORD")
	}
	return opts, nil
}

func main() {
	defer logging.Sync()

	opts, err := parseFlags()
	if err == nil {
		err = run(opts)
	}
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fmt.Println("Exiting.")
		logging.Sync()
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if plan.DirNotEmpty(opts.output) && !opts.resume {
		fmt.Println("Output dir is not empty. Specify `-resume` if you want to resume download. Exiting.")
		return nil
	}

	sh, err := share.ParseURL(opts.url)
	if err != nil {
		return err
	}

	password := opts.password
	if opts.prompt {
		password, err = console.ReadPassword()
		if err != nil {
			return err
		}
	}

	session := share.NewSession(share.Config{
		Host:     sh.Host,
		Token:    sh.Token,
		Password: password,
	})

	fmt.Println("Reading share contents.")
	files, err := dav.NewWalker(session).Walk(ctx, sh.Path)
	if err != nil {
		return err
	}

	if len(opts.globs) > 0 {
		fmt.Println("Filtering by matching file paths to:", opts.globs.String())
	}
	p, err := plan.Build(files, opts.output, opts.globs)
	if err != nil {
		return err
	}

	pathWidth := console.Width()
	if pathWidth < 160 {
		pathWidth = 160
	}
	pathWidth -= 100

	console.PrintReport(p, pathWidth)

	downloads := p.Downloads()
	fmt.Printf("%d new file(s) will be downloaded and %d overwritten. Total size: %s\n",
		len(p.New), len(p.Mismatched), progress.FormatBytes(p.TotalSize()))

	if len(downloads) == 0 {
		fmt.Println("Nothing to download. Exiting.")
		return nil
	}

	if !opts.yes {
		proceed, err := console.Confirm(os.Stdin, "Proceed ([y]/n)?", true)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	engine := transfer.NewEngine(session, console.NewBar(pathWidth))
	return engine.Run(ctx, p)
}
