// sessionctl is a small operator CLI around the session core: it boots the
// coordinator against the configured backend and runs one session command.
//
// Usage:
//
//	sessionctl status
//	sessionctl login <email> <password>
//	sessionctl logout
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/stillwaterhq/stillwater/internal/session/app"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := app.LoadConfig()
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	ctx := context.Background()
	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, application *app.Application, cmd string, args []string) error {
	coord := application.Coordinator

	if err := coord.Boot(ctx); err != nil {
		// A failed resolve still leaves a reportable state; only surface boot
		// errors for commands that need an authenticated session.
		application.Logger().Warn("boot finished with error", "error", err)
	}

	switch cmd {
	case "status":
		printStatus(application)
		return nil

	case "login":
		if len(args) != 2 {
			usage()
			return fmt.Errorf("login needs <email> <password>")
		}
		if _, err := application.API.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		if err := coord.SetHasToken(ctx, true); err != nil {
			return err
		}
		printStatus(application)
		return nil

	case "logout":
		coord.Logout(ctx)
		printStatus(application)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printStatus(application *app.Application) {
	snap := application.Coordinator.Snapshot()
	fmt.Printf("initialized:   %v\n", snap.Initialized)
	fmt.Printf("authenticated: %v\n", snap.Authenticated)
	fmt.Printf("first launch:  %v\n", snap.FirstLaunch)
	if snap.Authenticated {
		fmt.Printf("user:          %s <%s>\n", snap.User.ID, snap.User.Email)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sessionctl <status|login|logout> [args]")
	fmt.Fprintln(os.Stderr, "  login <email> <password>")
}
