// pouch-cli is the interactive terminal client: one line per command,
// one line per response.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pouchkv/pouch/pkg/client"
	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.StringP("addr", "a", "localhost:6379", "server address")
	pflag.Parse()

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pouch-cli: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), ".pouch_cli_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("connected to %s\n", *addr)
	for {
		input, err := line.Prompt("pouch> ")
		if err != nil { // Ctrl-C / Ctrl-D
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return
		}
		line.AppendHistory(input)

		cmd, err := command.ParseLine(input)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		resp, err := c.Do(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pouch-cli: %v\n", err)
			os.Exit(1)
		}
		printResponse(resp)
	}
}

func printResponse(r response.Response) {
	switch v := r.(type) {
	case response.Err:
		fmt.Printf("(error) %s\n", v.Error)
	case response.StringValue:
		fmt.Printf("%q\n", v.Value)
	case response.IntValue:
		fmt.Printf("(integer) %d\n", v.Value)
	case response.BoolValue:
		fmt.Printf("%t\n", v.Value)
	case response.Count:
		fmt.Printf("(integer) %d\n", v.Count)
	case response.AffectedKeys:
		fmt.Printf("(integer) %d\n", v.AffectedKeys)
	case response.List:
		if len(v.Values) == 0 {
			fmt.Println("(empty)")
			return
		}
		for i, el := range v.Values {
			fmt.Printf("%d) %q\n", i+1, el)
		}
	case response.Set:
		for i, el := range v.Values {
			fmt.Printf("%d) %q\n", i+1, el)
		}
	default:
		fmt.Printf("%v\n", v)
	}
}
