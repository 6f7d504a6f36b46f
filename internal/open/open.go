package open

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// User opens the message store in $EDITOR (less when unset) positioned on
// the line that starts username's sequence.
func User(storePath, username string) error {
	line, err := UserLine(storePath, username)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return openInEditor(editor, storePath, line)
}

// UserLine returns the 1-based line of username's key in an indented store
// file.
func UserLine(storePath, username string) (int, error) {
	f, err := os.Open(storePath)
	if err != nil {
		return 0, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	var key bytes.Buffer
	enc := json.NewEncoder(&key)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(username); err != nil {
		return 0, err
	}
	prefix := "  " + strings.TrimSpace(key.String()) + ":"

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for n := 1; sc.Scan(); n++ {
		if strings.HasPrefix(sc.Text(), prefix) {
			return n, nil
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read store: %w", err)
	}
	return 0, fmt.Errorf("user not found: %s", username)
}

func openInEditor(editor, filePath string, lineNum int) error {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
