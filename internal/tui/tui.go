// Package tui implements the terminal user interface for picking a hive and one of its actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/beekeeper/internal/api"
	"go.followtheprocess.codes/beekeeper/internal/beekeeper"
	"go.followtheprocess.codes/beekeeper/internal/hive"
	"go.followtheprocess.codes/beekeeper/internal/tui/components/filepicker"
	"go.followtheprocess.codes/beekeeper/internal/tui/components/list"
	"go.followtheprocess.codes/beekeeper/internal/variable"
)

// Run runs the TUI, this is what happens when users call `beekeeper` with no subcommand.
//
// If location is empty a hive is picked from the current directory first. The picked
// action is then called with no arguments, so it suits actions whose variables are all
// filled by the hive itself.
func Run(ctx context.Context, location string) error {
	if location == "" {
		picker := filepicker.New(".")

		tm, err := tea.NewProgram(&picker, tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}

		final, ok := tm.(filepicker.Model)
		if !ok {
			return fmt.Errorf("tui error, final model was not as expected: %T", tm)
		}

		location = final.Selected()
		if location == "" {
			return nil
		}
	}

	h, err := hive.NewLoader().Open(ctx, location, "")
	if err != nil {
		return err
	}

	built, err := api.New(h)
	if err != nil {
		return err
	}

	found, err := entries(built)
	if err != nil {
		return err
	}

	title := built.Name()
	if title == "" {
		title = location
	}

	listModel := list.New("Actions in "+title, found)

	tm, err := tea.NewProgram(&listModel, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	finalListModel, ok := tm.(list.Model)
	if !ok {
		return fmt.Errorf("tui error, list final model was not as expected: %T", tm)
	}

	entry, picked := finalListModel.Selected()
	if !picked {
		return nil
	}

	app := beekeeper.New(os.Stdout, os.Stderr, false)
	options := beekeeper.DoOptions{
		Timeout:           beekeeper.DefaultTimeout,
		ConnectionTimeout: beekeeper.DefaultConnectionTimeout,
	}

	err = app.Do(ctx, location, entry.Object, entry.Action, nil, options)

	var missing *variable.MissingError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w\nfill them with: beekeeper do %s %s %s name=value...", err, location, entry.Object, entry.Action)
	}

	return err
}

// entries lists every action of every object in built, sorted by object then action.
func entries(built *api.API) ([]list.Entry, error) {
	var found []list.Entry
	for _, objectName := range built.Objects() {
		object, err := built.Object(objectName)
		if err != nil {
			return nil, err
		}

		for _, actionName := range object.Actions() {
			action, err := object.Action(actionName)
			if err != nil {
				return nil, err
			}

			found = append(found, list.Entry{
				Object:  objectName,
				Action:  actionName,
				Method:  action.Method(),
				URL:     action.Endpoint().URL(),
				Summary: action.Description(),
			})
		}
	}

	return found, nil
}
