// cleovm CLI - inspects and archives CLEO script binaries
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/marbeck/cleovm/config"
	"github.com/marbeck/cleovm/manager"
	"github.com/marbeck/cleovm/store"
	"github.com/marbeck/cleovm/vm"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity")
	configDir := flag.String("c", ".", "Directory containing cleovm.toml")
	archive := flag.Bool("archive", false, "Archive configured script directories into the store")
	list := flag.Bool("list", false, "List archived scripts")
	dump := flag.String("dump", "", "Print the opcode word stream of a script file")
	words := flag.Int("words", 64, "Maximum opcode words to dump")
	run := flag.Bool("run", false, "Dry-run the configured scripts under a stepping host")
	frames := flag.Int("frames", 0, "Frame budget for -run (0 = until all scripts finish)")
	storePath := flag.String("store", "", "Archive path (overrides cleovm.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cleovm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects, archives and dry-runs CLEO script binaries. Real opcode\n")
		fmt.Fprintf(os.Stderr, "semantics live in an embedding host; the dry run steps the word\n")
		fmt.Fprintf(os.Stderr, "stream one block per frame to check scripts reach their terminator.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cleovm -archive            # Archive scripts/ into cleovm.db\n")
		fmt.Fprintf(os.Stderr, "  cleovm -list               # Show archive contents\n")
		fmt.Fprintf(os.Stderr, "  cleovm -dump mod.csa       # Show a script's opcode words\n")
		fmt.Fprintf(os.Stderr, "  cleovm -run -frames 100    # Step scripts for at most 100 frames\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if *dump != "" {
		if err := dumpScript(*dump, *words); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default(*configDir)
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	if *run {
		framesRun, active, err := runScripts(cfg, *frames)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ran %d frames, %d scripts still active\n", framesRun, active)
	}

	if *archive {
		if err := archiveScripts(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *list {
		if err := listArchive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !*archive && !*list && !*run {
		flag.Usage()
		os.Exit(2)
	}
}

// stepHost is the dry-run host: every handler yields a block boundary,
// so one frame advances each script by exactly one opcode word.
func stepHost() *vm.TableHost {
	step := func(ctx *vm.Script, opcode uint16) bool { return true }
	// Every table-range opcode resolves below offset 27*16.
	entries := make([]vm.TableEntry, 27)
	for i := range entries {
		entries[i] = vm.TableEntry{Handler: step}
	}
	return &vm.TableHost{Default: step, Entries: entries}
}

// runScripts loads the configured scripts and drives the manager until
// every script is inactive or the frame budget runs out (frames == 0
// means no budget). Returns the frames run and the scripts left active.
func runScripts(cfg *config.Config, frames int) (uint32, int, error) {
	m := manager.New(stepHost(), nil)
	loaded := 0
	for _, dir := range cfg.ScriptDirs() {
		n, err := m.LoadDir(dir, cfg.Scripts.Extensions)
		if err != nil {
			return 0, 0, err
		}
		loaded += n
	}
	if loaded == 0 {
		return 0, 0, fmt.Errorf("no scripts found in %v", cfg.ScriptDirs())
	}

	active := m.ActiveCount()
	for active > 0 && (frames == 0 || int(m.Frame()) < frames) {
		// Retire scripts whose word stream ran out without a
		// terminator before they can underflow the decoder.
		for _, s := range m.Scripts() {
			if s.Active() && s.Cursor()+2 > s.Len() {
				s.MarkInactive()
			}
		}
		active = m.Advance()
	}
	return m.Frame(), active, nil
}

func archiveScripts(cfg *config.Config) error {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	archived := 0
	for _, dir := range cfg.ScriptDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read script directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !hasExt(entry.Name(), cfg.Scripts.Extensions) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			digest, err := st.Put(entry.Name(), data)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s (%d bytes)\n", digest[:12], entry.Name(), len(data))
			archived++
		}
	}
	fmt.Printf("Archived %d scripts to %s\n", archived, cfg.StorePath())
	return nil
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func listArchive(cfg *config.Config) error {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s (%d bytes)\n", e.Digest[:12], e.Name, e.Size)
	}
	fmt.Printf("%d scripts in %s\n", len(entries), cfg.StorePath())
	return nil
}

// dumpScript prints the opcode word stream from the start of a script.
// Handler argument bytes are host-defined, so the dump is a raw word
// view: it stops at the first terminator word or the word limit.
func dumpScript(path string, limit int) error {
	var names vm.NameCounter
	s, err := vm.LoadFile(path, &names)
	if err != nil {
		return err
	}
	defer s.Unload()

	fmt.Printf("%s: %d bytes\n", path, s.Len())
	for i := 0; i < limit && s.Cursor()+2 <= s.Len(); i++ {
		offset := s.Cursor()
		opcode, invert := s.DecodeNext()
		marker := ""
		if invert {
			marker = "  NOT"
		}
		fmt.Printf("%04x  %04x%s\n", offset, opcode, marker)
		if opcode == vm.OpTerminate {
			break
		}
	}
	return nil
}
