package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/user"
)

// addUser updates or creates a user.Principal
func (cli *commandLine) addUser(name, email, pwd string, role user.Role, state string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	state = core.CleanString(state)

	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if !user.ValidJurisdiction(state) {
		return fmt.Errorf("unknown state %q", state)
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.Principal{
			Name:         name,
			Email:        email,
			Role:         role,
			Jurisdiction: state,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Name = name
	usr.Role = role
	usr.Jurisdiction = state
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
