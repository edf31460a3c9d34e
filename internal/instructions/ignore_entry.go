package instructions

import (
	"strings"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/ops"
)

// EnsureIgnoreEntry makes sure entry appears as a whole line of the
// ignore file at p.
func EnsureIgnoreEntry(p, entry string, prior ops.Results) (Instruction, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Instruction{}, apperr.New(apperr.ErrInvalidInput, "ignore entry is required")
	}
	p, err := ops.CleanPath(p)
	if err != nil {
		return Instruction{}, err
	}
	bc := BuilderContext{Kind: KindIgnoreEntry, Path: p, Text: entry}
	if prior == nil {
		return readRequest(bc, "whether "+entry+" is ignored")
	}
	content, exists, err := readState(prior, p)
	if err != nil {
		return Instruction{}, err
	}
	switch {
	case !exists:
		return writeInstruction(KindIgnoreEntry, p, entry+"\n", ActionCreate,
			"Create "+p+" ignoring "+entry+".")
	case hasLine(content, entry):
		return noop(KindIgnoreEntry, p, entry+" is already listed in "+p+"."), nil
	default:
		return writeInstruction(KindIgnoreEntry, p, appendText(content, entry+"\n"), ActionAppend,
			"Append "+entry+" to "+p+".")
	}
}

// hasLine reports whether any line of content equals entry, ignoring
// trailing whitespace and carriage returns.
func hasLine(content, entry string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimRight(line, " \t\r") == entry {
			return true
		}
	}
	return false
}
