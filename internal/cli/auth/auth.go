package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/questlog/internal/cli"
	"github.com/julianstephens/questlog/internal/identity"
)

type AuthCmd struct {
	Signup  SignupCmd  `cmd:"" help:"Create an account."`
	Signin  SigninCmd  `cmd:"" help:"Sign in and start a session."`
	Signout SignoutCmd `cmd:"" help:"End the current session."`
	Whoami  WhoamiCmd  `cmd:"" help:"Show the signed-in account."`
	Refresh RefreshCmd `cmd:"" help:"Extend the current session."`
}

// Credentials are shared by signup and signin. The password is prompted
// for when not supplied through the environment.
type Credentials struct {
	Email    string `arg:"" help:"Account email."`
	Password string `hidden:"" env:"QUESTLOG_PASSWORD" help:"Password (prompted when unset)."`
}

func (c *Credentials) password(confirm bool) (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}

	var pw, again string
	fields := []huh.Field{
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&pw).
			Validate(func(s string) error {
				if confirm && len(s) < identity.MinPasswordLength {
					return identity.ErrWeakPassword
				}
				return nil
			}),
	}
	if confirm {
		fields = append(fields, huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&again).
			Validate(func(s string) error {
				if s != pw {
					return errors.New("passwords do not match")
				}
				return nil
			}))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", fmt.Errorf("password prompt: %w", err)
	}
	return pw, nil
}

type SignupCmd struct {
	Credentials
}

func (c *SignupCmd) Run(ctx *cli.Context) error {
	pw, err := c.password(true)
	if err != nil {
		return err
	}
	profile, err := ctx.Identity().SignUp(c.Email, pw)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Welcome, adventurer! Account created for %s\n", profile.Email)
	ctx.Printf("  Starting gear: %d items unlocked. Run 'questlog auth signin' to begin.\n", len(profile.UnlockedItems))
	return nil
}

type SigninCmd struct {
	Credentials
}

func (c *SigninCmd) Run(ctx *cli.Context) error {
	pw, err := c.password(false)
	if err != nil {
		return err
	}
	session, profile, err := ctx.Identity().SignIn(c.Email, pw)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Signed in as %s (level %d)\n", profile.Email, profile.CharacterLevel)
	ctx.Printf("  Login streak: %d day(s). Session valid until %s\n",
		profile.LoginStreak, session.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

type SignoutCmd struct{}

func (c *SignoutCmd) Run(ctx *cli.Context) error {
	if err := ctx.Identity().SignOut(); err != nil {
		return err
	}
	ctx.Println("✓ Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	session, profile, err := ctx.Identity().Current()
	if err != nil {
		return err
	}
	ctx.Printf("%s\n", profile.Email)
	ctx.Println(cli.Muted(fmt.Sprintf("profile %s, session expires %s",
		profile.ID, session.ExpiresAt.Local().Format(time.DateTime))))
	return nil
}

type RefreshCmd struct{}

func (c *RefreshCmd) Run(ctx *cli.Context) error {
	session, err := ctx.Identity().Refresh()
	if err != nil {
		return err
	}
	ctx.Printf("✓ Session extended until %s\n", session.ExpiresAt.Local().Format(time.DateTime))
	return nil
}
