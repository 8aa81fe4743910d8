package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/report"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagLoginUser     string
	flagProfileName   string
	flagProfileEmail  string
	flagProfilePasswd bool
	flagLogoutKeep    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the user",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the signed-in user and their cached expenses",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change your name, email or password",
	Args:  cobra.NoArgs,
	RunE:  runProfileEdit,
}

var thresholdCmd = &cobra.Command{
	Use:     "threshold [AMOUNT]",
	Aliases: []string{"limit"},
	Short:   "Show or set the monthly spending limit",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runThreshold,
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginUser, "username", "", "Username (asked for when empty)")
	logoutCmd.Flags().BoolVar(&flagLogoutKeep, "keep-cache", false, "Keep the cached expenses")

	profileEditCmd.Flags().StringVar(&flagProfileName, "name", "", "New display name")
	profileEditCmd.Flags().StringVar(&flagProfileEmail, "email", "", "New email")
	profileEditCmd.Flags().BoolVar(&flagProfilePasswd, "password", false, "Also set a new password")
	profileCmd.AddCommand(profileEditCmd)

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, profileCmd, thresholdCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	cr := model.Credentials{Username: flagLoginUser}
	if cr.Username == "" {
		cr.Username = config.Username(cfg)
	}
	err = huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Username").Value(&cr.Username),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&cr.Password),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	if err != nil {
		return err
	}
	cr.Username = strings.TrimSpace(cr.Username)
	if err := cr.Validate(); err != nil {
		return err
	}

	msg, err := client.SignIn(cmd.Context(), cr)
	if err != nil {
		return err
	}
	if err := rememberUser(cr.Username); err != nil {
		return err
	}
	fmt.Printf("  %s\n", okText(msg, "Signed in."))
	fmt.Printf("  Signed in as %s.\n", cr.Username)
	return nil
}

func runSignup(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var r model.Registration
	err = huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Name").Value(&r.Name),
		huh.NewInput().Title("Username").Value(&r.Username),
		huh.NewInput().Title("Email").Value(&r.Email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&r.Password),
		huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&r.Confirm),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	if err != nil {
		return err
	}
	r.Username = strings.TrimSpace(r.Username)
	if err := r.Validate(); err != nil {
		return err
	}

	msg, err := client.SignUp(cmd.Context(), r)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", okText(msg, "Account created."))
	fmt.Println("  Sign in with `pennywise login`.")
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	owner, err := currentUser()
	if err != nil {
		return err
	}
	if !flagLogoutKeep {
		if c := openCache(); c != nil {
			if err := c.DeleteOwner(owner); err != nil {
				logger.Warn("clearing cache", log.FieldOwner, owner, log.FieldError, err)
			}
			_ = c.Close()
		}
	}
	if err := rememberUser(""); err != nil {
		return err
	}
	fmt.Printf("  Signed out %s.\n", owner)
	return nil
}

// rememberUser stores username in the config file. Flag overrides in cfg
// are not written back.
func rememberUser(username string) error {
	onDisk, err := config.Load()
	if err != nil {
		return err
	}
	onDisk.Account.Username = username
	return config.Save(onDisk)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	owner, err := currentUser()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	u, err := client.UserInfo(cmd.Context(), owner)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title: "Profile",
		Rows: [][]string{
			{"Username", u.Username},
			{"Name", u.Name},
			{"Email", u.Email},
		},
		LeftCols: 2,
	}))
	fmt.Println("\n  Change it with `pennywise profile edit`.")
	return nil
}

func runProfileEdit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	owner, err := currentUser()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	u, err := client.UserInfo(ctx, owner)
	if err != nil {
		return err
	}

	upd := model.ProfileUpdate{Username: owner, Name: u.Name, Email: u.Email}
	flagsGiven := cmd.Flags().Changed("name") || cmd.Flags().Changed("email") || flagProfilePasswd
	if cmd.Flags().Changed("name") {
		upd.Name = flagProfileName
	}
	if cmd.Flags().Changed("email") {
		upd.Email = flagProfileEmail
	}

	var password, confirm string
	switch {
	case !flagsGiven:
		changePw := false
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Name").Value(&upd.Name),
				huh.NewInput().Title("Email").Value(&upd.Email),
				huh.NewConfirm().Title("Change password?").Value(&changePw),
			),
			huh.NewGroup(
				huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm),
			).WithHideFunc(func() bool { return !changePw }),
		).Run()
		if changePw {
			upd.Password = &password
		}
	case flagProfilePasswd:
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&password),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm),
		)).Run()
		upd.Password = &password
	}
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	if err != nil {
		return err
	}
	if upd.Password != nil && password != confirm {
		return &model.ValidationError{Fields: []model.FieldError{{Field: "confirm", Message: "Passwords do not match."}}}
	}
	if err := upd.Validate(); err != nil {
		return err
	}

	msg, err := client.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", okText(msg, "Profile updated."))
	return nil
}

func runThreshold(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 1 {
		if err := s.requireOnline(); err != nil {
			return err
		}
		amount, err := parseLimit(args[0])
		if err != nil {
			return err
		}
		msg, err := s.client.SetThreshold(ctx, s.owner, amount)
		if err != nil {
			return err
		}
		if s.cache != nil {
			if err := s.cache.SaveThreshold(s.owner, model.Threshold{Amount: &amount}, time.Now()); err != nil {
				logger.Warn("saving threshold", log.FieldOwner, s.owner, log.FieldError, err)
			}
		}
		fmt.Printf("  %s\n", okText(msg, "Monthly limit set to "+cli.FormatAmount(amount)+"."))
	}

	th, err := s.threshold(ctx)
	if err != nil {
		return err
	}
	month := report.MonthStart(time.Now())
	st := report.ThresholdStatus(th, month, report.MonthSpend(s.ctrl.Store().All(), month))

	rows := append([][]string{{cli.FormatMonth(month), cli.FormatAmount(st.Spent)}}, thresholdRows(st)...)
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Monthly limit", Rows: rows}))
	if st.Limit != nil {
		fmt.Println("\n  " + cli.RenderSpendBar(st.Spent, *st.Limit, 30))
	} else {
		fmt.Println("\n  Set one with `pennywise threshold AMOUNT`.")
	}
	return nil
}

func parseLimit(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, &model.ValidationError{Fields: []model.FieldError{
			{Field: "threshold", Message: "threshold must be a non-negative number"},
		}}
	}
	return d, nil
}
