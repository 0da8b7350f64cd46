package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/client"
	"github.com/jrsteele09/go-storefront-session/customers"
	"github.com/jrsteele09/go-storefront-session/internal/config"
	"github.com/jrsteele09/go-storefront-session/internal/logging"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/session"
)

const usage = `usage: sessionctl <command> [flags]

commands:
  login     -email E -password P [-admin]   sign in and persist the session
  register  -name N -email E -password P [-phone X]
  status                                    show the persisted session
  me                                        fetch the customer profile
  update    -name N [-phone X]              update the customer profile
  password  -current C -new N               change the customer password
  logout    [-all]                          sign out (of every session with -all)
`

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())

	navigator := routes.NavigatorFunc(func(path string, done func()) {
		fmt.Println("->", path)
		if done != nil {
			done()
		}
	})
	cl, err := client.New(c, client.WithNavigator(navigator))
	if err != nil {
		return err
	}
	defer cl.Close()
	if err := cl.Init(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		email    = fs.String("email", "", "account email")
		password = fs.String("password", "", "account password")
		name     = fs.String("name", "", "display name")
		phone    = fs.String("phone", "", "phone number")
		current  = fs.String("current", "", "current password")
		newPass  = fs.String("new", "", "new password")
		admin    = fs.Bool("admin", false, "use the admin login endpoint")
		all      = fs.Bool("all", false, "log out of every session")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch command {
	case "login":
		kind := session.KindCustomer
		if *admin {
			kind = session.KindAdmin
		}
		user, err := cl.Session.Login(ctx, kind, *email, *password)
		if err != nil {
			return err
		}
		displayBanner(c.GetAppName())
		return printJSON(user)

	case "register":
		created, err := cl.Session.Register(ctx, authapi.RegisterRequest{Name: *name, Email: *email, Phone: *phone, Password: *password})
		if err != nil {
			return err
		}
		return printJSON(created)

	case "status":
		return printJSON(map[string]any{
			"state": cl.Session.State().String(),
			"user":  cl.Session.User(),
		})

	case "me":
		me, err := cl.Customers.GetMe(ctx)
		if err != nil {
			return err
		}
		return printJSON(me)

	case "update":
		req := customers.UpdateProfileRequest{Name: *name}
		if *phone != "" {
			req.Phone = phone
		}
		me, err := cl.Customers.UpdateProfile(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(me)

	case "password":
		if err := cl.Customers.ChangePassword(ctx, *current, *newPass); err != nil {
			return err
		}
		fmt.Println("password changed")
		return nil

	case "logout":
		if !cl.Session.IsAuthenticated() {
			fmt.Println("not logged in")
			return nil
		}
		return cl.Session.Logout(ctx, *all)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayBanner(appname string) {
	figure.NewFigure(appname, "small", true).Print()
	fmt.Println()
}
