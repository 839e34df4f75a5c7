package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for prompt output.
var printlnFn = fmt.Println

// execIface is what the prompt loop needs from App.
type execIface interface {
	Exec(ctx context.Context, name string, args []string) error
	status() string
}

// runREPL reads commands line by line and runs them until EOF, "exit" or
// "quit". Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	printlnFn("accountctl (type 'help' for commands)")
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("accounts%s> ", a.status()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			if err := a.Exec(ctx, parts[0], parts[1:]); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
