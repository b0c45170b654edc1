package cmd

import (
	"fmt"
	"sort"

	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/spf13/cobra"
)

// settingsCmd groups commands over persisted key/value settings.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write persisted settings",
}

// settingsGetCmd prints one setting, or all of them without a key.
var settingsGetCmd = &cobra.Command{
	Use:     "get [key]",
	Short:   "Print a setting, or every setting when no key is given",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := iocache.Manager.Settings()
		if len(args) == 1 {
			value, err := store.Get(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		}

		all, err := store.All(cmd.Context())
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(all))
		for key := range all {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s=%s\n", key, all[key])
		}
		return nil
	},
}

// settingsSetCmd stores a setting.
var settingsSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Store a setting",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		return iocache.Manager.Settings().Set(cmd.Context(), args[0], args[1])
	},
}
