package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/notedesk/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import notes from JSON",
		Long:  "Import notes from JSON (file or stdin). Accepts the array written by export or a full snapshot. Notes whose id already exists are skipped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

// parseNotes accepts either a JSON array of notes or a snapshot object.
func parseNotes(data []byte) ([]model.Note, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var notes []model.Note
		if err := json.Unmarshal(data, &notes); err != nil {
			return nil, err
		}
		return notes, nil
	}
	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return st.Notes, nil
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	notes, err := parseNotes(data)
	if err != nil {
		exitErr("parse json", err)
	}

	a := mustOpenWritable(cmd)
	defer a.Close()

	imported := a.store.Import(notes)
	a.checkPersist()

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, len(notes)-imported)
}
