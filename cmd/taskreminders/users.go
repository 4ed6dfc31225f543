package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/task-reminders/internal/model"
	"github.com/nhle/task-reminders/internal/users"
)

func (a *app) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: taskreminders user add|list")
	}
	switch args[0] {
	case "add":
		return a.userAdd(ctx, args[1:])
	case "list":
		list, err := a.users.ListUsers(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderUsers(list))
		return nil
	}
	return fmt.Errorf("unknown user command %q", args[0])
}

func (a *app) userAdd(ctx context.Context, args []string) error {
	var in users.Registration
	var role string
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Password, "password", "", "password (8-72 characters)")
	fs.StringVar(&role, "role", "", "ADMIN or MEMBER")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := promptRegistration(&in, &role); err != nil {
		return err
	}
	in.Role = model.Role(strings.ToUpper(role))

	u, err := a.users.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("registered %s %s\n", u.Email, mutedText(u.ID))
	return nil
}

// promptRegistration asks for the fields not given on the command line.
func promptRegistration(in *users.Registration, role *string) error {
	var fields []huh.Field
	if in.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Value(&in.Name))
	}
	if in.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&in.Email))
	}
	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if len(s) < 8 {
					return fmt.Errorf("must be at least 8 characters long")
				}
				return nil
			}).
			Value(&in.Password))
	}
	if *role == "" {
		*role = string(model.RoleMember)
		fields = append(fields, huh.NewSelect[string]().
			Title("Role").
			Options(
				huh.NewOption("Member", string(model.RoleMember)),
				huh.NewOption("Admin", string(model.RoleAdmin)),
			).
			Value(role))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}
