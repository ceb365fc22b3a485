package cli

import (
	"io"
	"os"

	"github.com/ogulcanaydogan/xcli/pkg/xapi"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

// printResponse writes the response body. With --json the raw body is written
// untouched; otherwise the data envelope is indented and, on a terminal,
// coloured.
func printResponse(w io.Writer, resp *xapi.Response) error {
	if jsonOutput {
		_, err := w.Write(append(resp.Raw, '\n'))
		return err
	}

	body := resp.Raw
	if len(resp.Data) > 0 {
		body = resp.Data
	}
	out := pretty.Pretty(body)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = pretty.Color(out, nil)
	}
	_, err := w.Write(out)
	return err
}
