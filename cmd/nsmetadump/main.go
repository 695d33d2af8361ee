// nsmetadump lists the contents of a metadata blob: every record in
// the global symbol table plus the module table, as text, JSON or
// CBOR.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/appsworld/go-nsmeta"
)

type recordSummary struct {
	Kind       string `json:"kind" cbor:"kind"`
	Name       string `json:"name" cbor:"name"`
	JSName     string `json:"jsName,omitempty" cbor:"jsName,omitempty"`
	Module     string `json:"module,omitempty" cbor:"module,omitempty"`
	Introduced string `json:"introduced,omitempty" cbor:"introduced,omitempty"`
	Available  bool   `json:"available" cbor:"available"`

	Base      string   `json:"base,omitempty" cbor:"base,omitempty"`
	Protocols []string `json:"protocols,omitempty" cbor:"protocols,omitempty"`
	Fields    []string `json:"fields,omitempty" cbor:"fields,omitempty"`
	Params    int      `json:"params,omitempty" cbor:"params,omitempty"`
}

type blobSummary struct {
	Size    int             `json:"size" cbor:"size"`
	Modules []string        `json:"modules" cbor:"modules"`
	Records []recordSummary `json:"records" cbor:"records"`
}

func formatVersion(v uint8) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%d", nsmeta.MajorVersion(v), nsmeta.MinorVersion(v))
}

func summarize(m nsmeta.Meta) recordSummary {
	s := recordSummary{
		Kind:       m.Type().String(),
		Name:       m.Name(),
		Introduced: formatVersion(m.IntroducedIn()),
		Available:  m.IsAvailable(),
	}
	if js := m.JSName(); js != s.Name {
		s.JSName = js
	}
	if mod := m.Module(); mod != nil {
		s.Module = mod.Name()
	}
	switch m := m.(type) {
	case *nsmeta.InterfaceMeta:
		s.Base = m.BaseName()
		s.Protocols = stringsOf(m.ProtocolNames())
	case *nsmeta.ProtocolMeta:
		s.Protocols = stringsOf(m.ProtocolNames())
	case *nsmeta.StructMeta:
		s.Fields = stringsOf(m.FieldNames())
	case *nsmeta.UnionMeta:
		s.Fields = stringsOf(m.FieldNames())
	case *nsmeta.FunctionMeta:
		s.Params = m.ParamsCount()
	}
	return s
}

func stringsOf(arr nsmeta.StringArray) []string {
	out := make([]string, 0, arr.Count())
	for i := 0; i < arr.Count(); i++ {
		out = append(out, arr.At(i))
	}
	return out
}

func collect(f *nsmeta.File) blobSummary {
	sum := blobSummary{Size: f.Size()}
	mt := f.ModuleTable()
	for i := 0; i < mt.Count(); i++ {
		if m := mt.At(i); m != nil {
			sum.Modules = append(sum.Modules, m.Name())
		}
	}
	for it := f.GlobalTable().Iterate(); it.Next(); {
		if m := it.Meta(); m != nil {
			sum.Records = append(sum.Records, summarize(m))
		}
	}
	return sum
}

func printText(sum blobSummary) {
	fmt.Printf("blob: %d bytes, %d modules, %d records\n", sum.Size, len(sum.Modules), len(sum.Records))
	for _, m := range sum.Modules {
		fmt.Printf("module %s\n", m)
	}
	for _, r := range sum.Records {
		fmt.Printf("%-10s %s", r.Kind, r.Name)
		if r.JSName != "" {
			fmt.Printf(" (js %s)", r.JSName)
		}
		if r.Base != "" {
			fmt.Printf(" : %s", r.Base)
		}
		if r.Introduced != "" {
			fmt.Printf(" [since %s]", r.Introduced)
		}
		if !r.Available {
			fmt.Print(" [unavailable]")
		}
		fmt.Println()
	}
}

func run() error {
	format := flag.String("format", "text", "output format: text, json or cbor")
	osVersion := flag.String("os", "", "system version for availability checks, as major.minor")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: nsmetadump [flags] <metadata-blob>")
	}
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		nsmeta.SetLogger(l)
	}

	var opts []nsmeta.Option
	if *osVersion != "" {
		var major, minor uint8
		if _, err := fmt.Sscanf(*osVersion, "%d.%d", &major, &minor); err != nil {
			return fmt.Errorf("failed to parse -os %q: %w", *osVersion, err)
		}
		opts = append(opts, nsmeta.WithSystemVersion(major, minor))
	}

	f, err := nsmeta.Open(flag.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	sum := collect(f)
	switch *format {
	case "text":
		printText(sum)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	case "cbor":
		data, err := cbor.Marshal(sum)
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
