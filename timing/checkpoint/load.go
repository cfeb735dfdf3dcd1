package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/coresim/timing/btb"
	"github.com/sarchlab/coresim/timing/cache"
)

// lineTokens walks the whitespace-delimited tokens of one line and
// builds line-numbered parse errors.
type lineTokens struct {
	line   int
	fields []string
	pos    int
}

func (t *lineTokens) errorf(format string, args ...any) error {
	return &ParseError{Line: t.line, Message: fmt.Sprintf(format, args...)}
}

func (t *lineTokens) next() (string, bool) {
	if t.pos >= len(t.fields) {
		return "", false
	}
	tok := t.fields[t.pos]
	t.pos++
	return tok, true
}

// expect consumes one token and requires it to equal label.
func (t *lineTokens) expect(label, context string) error {
	tok, ok := t.next()
	if !ok || tok != label {
		return t.errorf("expected '%s' token %s", label, context)
	}
	return nil
}

// intValue consumes one token as a base-10 signed integer.
func (t *lineTokens) intValue(what string) (int64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, t.errorf("missing %s", what)
	}
	value, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, t.errorf("missing %s", what)
	}
	return value, nil
}

// uintValue consumes one token as a base-10 unsigned integer.
func (t *lineTokens) uintValue(what string) (uint64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, t.errorf("missing %s", what)
	}
	value, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, t.errorf("missing %s", what)
	}
	return value, nil
}

// addrValue consumes one token as an address in any prefixed base. The
// token must be consumed completely.
func (t *lineTokens) addrValue(what string) (uint64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, t.errorf("missing %s", what)
	}
	value, err := strconv.ParseUint(tok, 0, 64)
	if err != nil {
		return 0, t.errorf("failed to parse address token '%s' for %s", tok, what)
	}
	return value, nil
}

// section tracks which block of the file the parser is inside.
type section int

const (
	sectionNone section = iota
	sectionCache
	sectionCore
)

// Load reads a checkpoint from path and pushes it into the given
// caches and cores. Caches with no matching section are explicitly
// cold-started; cores with no matching section are left untouched.
// A malformed line aborts the load with a ParseError; sections already
// applied are not rolled back.
func Load(caches []Cache, cores []Core, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open %q for reading checkpoint: %w", path, err)
	}
	defer file.Close()

	cacheStates := make(map[string][]cache.CheckpointEntry)
	coreStates := make(map[int]*btb.CheckpointState)

	sec := sectionNone
	currentCache := ""
	currentCore := -1

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			continue
		}

		fields := strings.Fields(trimmed)
		t := &lineTokens{line: lineNum, fields: fields}
		keyword, _ := t.next()

		switch keyword {
		case "#":
			continue

		case "Cache:":
			currentCache = strings.TrimSpace(strings.TrimPrefix(trimmed, "Cache:"))
			sec = sectionCache
			currentCore = -1
			if _, ok := cacheStates[currentCache]; !ok {
				cacheStates[currentCache] = nil
			}
			continue

		case "EndCache":
			sec = sectionNone
			currentCache = ""
			continue

		case "BTB:":
			if err := t.expect("CPU", "after 'BTB:'"); err != nil {
				return err
			}
			id, err := t.intValue("CPU id for BTB section")
			if err != nil {
				return err
			}
			sec = sectionCore
			currentCore = int(id)
			currentCache = ""
			if _, ok := coreStates[currentCore]; !ok {
				coreStates[currentCore] = &btb.CheckpointState{}
			}
			continue

		case "EndBTB":
			if sec != sectionCore {
				return t.errorf("'EndBTB' without active BTB section")
			}
			sec = sectionNone
			currentCore = -1
			continue
		}

		if sec == sectionCore {
			if err := parseCoreLine(t, keyword, coreStates[currentCore]); err != nil {
				return err
			}
			continue
		}

		if keyword == "Set:" {
			if sec != sectionCache || currentCache == "" {
				return t.errorf("'Set' entry without active cache")
			}

			entry, err := parseCacheEntry(t)
			if err != nil {
				return err
			}
			cacheStates[currentCache] = append(cacheStates[currentCache], entry)
			continue
		}

		return t.errorf("unexpected token '%s'", keyword)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to read checkpoint from %q: %w", path, err)
	}

	for _, c := range caches {
		entries := cacheStates[c.Name()]
		if err := c.RestoreCheckpoint(entries); err != nil {
			return fmt.Errorf("restoring cache %s: %w", c.Name(), err)
		}
	}

	for _, c := range cores {
		state, ok := coreStates[c.ID()]
		if !ok {
			continue
		}
		if err := c.RestoreBTBState(state); err != nil {
			return fmt.Errorf("restoring BTB state for CPU %d: %w", c.ID(), err)
		}
	}

	return nil
}

// parseCacheEntry parses the remainder of a "Set:" line.
func parseCacheEntry(t *lineTokens) (cache.CheckpointEntry, error) {
	var entry cache.CheckpointEntry

	set, err := t.intValue("set value")
	if err != nil {
		return entry, err
	}

	if err := t.expect("Way:", "after set value"); err != nil {
		return entry, err
	}
	way, err := t.intValue("way value")
	if err != nil {
		return entry, err
	}

	if err := t.expect("Address:", "after way value"); err != nil {
		return entry, err
	}
	addr, err := t.addrValue("cache entry address")
	if err != nil {
		return entry, err
	}

	entry.Set = int(set)
	entry.Way = int(way)
	entry.Address = addr
	return entry, nil
}

// parseCoreLine parses one data line inside a BTB section.
func parseCoreLine(t *lineTokens, keyword string, state *btb.CheckpointState) error {
	switch keyword {
	case "DirectGeometry:":
		if err := t.expect("Sets", "in DirectGeometry"); err != nil {
			return err
		}
		sets, err := t.intValue("direct set count")
		if err != nil {
			return err
		}

		if err := t.expect("Ways", "in DirectGeometry"); err != nil {
			return err
		}
		ways, err := t.intValue("direct way count")
		if err != nil {
			return err
		}

		state.DirectSets = int(sets)
		state.DirectWays = int(ways)
		return nil

	case "DirectEntry:":
		var entry btb.DirectEntryState

		if err := t.expect("Set", "for DirectEntry"); err != nil {
			return err
		}
		set, err := t.intValue("direct set value")
		if err != nil {
			return err
		}

		if err := t.expect("Way", "for DirectEntry"); err != nil {
			return err
		}
		way, err := t.intValue("direct way value")
		if err != nil {
			return err
		}

		if err := t.expect("LastUsed", "for DirectEntry"); err != nil {
			return err
		}
		lastUsed, err := t.uintValue("last used value for DirectEntry")
		if err != nil {
			return err
		}

		if err := t.expect("IP:", "for DirectEntry"); err != nil {
			return err
		}
		ip, err := t.addrValue("DirectEntry IP")
		if err != nil {
			return err
		}

		if err := t.expect("Target:", "for DirectEntry"); err != nil {
			return err
		}
		target, err := t.addrValue("DirectEntry target")
		if err != nil {
			return err
		}

		if err := t.expect("Type:", "for DirectEntry"); err != nil {
			return err
		}
		classCode, err := t.intValue("type value for DirectEntry")
		if err != nil {
			return err
		}

		entry.Set = int(set)
		entry.Way = int(way)
		entry.LastUsed = lastUsed
		entry.IPTag = ip
		entry.Target = target
		entry.ClassCode = uint8(classCode)

		state.DirectEntries = append(state.DirectEntries, entry)
		return nil

	case "IndirectSize:":
		size, err := t.uintValue("IndirectSize value")
		if err != nil {
			return err
		}
		state.IndirectTableSize = int(size)
		state.IndirectTargets = resizeUint64(state.IndirectTargets, int(size))
		return nil

	case "IndirectHistory:":
		history, err := t.uintValue("IndirectHistory value")
		if err != nil {
			return err
		}
		state.IndirectHistory = history
		return nil

	case "IndirectEntry:":
		if err := t.expect("Index", "for IndirectEntry"); err != nil {
			return err
		}
		index, err := t.uintValue("index value for IndirectEntry")
		if err != nil {
			return err
		}

		if err := t.expect("Target:", "for IndirectEntry"); err != nil {
			return err
		}
		target, err := t.addrValue("IndirectEntry target")
		if err != nil {
			return err
		}

		if int(index) >= len(state.IndirectTargets) {
			state.IndirectTargets = resizeUint64(state.IndirectTargets, int(index)+1)
		}
		state.IndirectTargets[index] = target
		return nil

	case "ReturnStackEntry:":
		addr, err := t.addrValue("ReturnStackEntry address")
		if err != nil {
			return err
		}
		state.ReturnStack = append(state.ReturnStack, addr)
		return nil

	case "CallSizeTrackerSize:":
		size, err := t.uintValue("CallSizeTrackerSize value")
		if err != nil {
			return err
		}
		state.CallSizeTrackerSize = int(size)
		state.CallSizeTrackers = resizeInt64(state.CallSizeTrackers, int(size))
		return nil

	case "CallSizeTracker:":
		if err := t.expect("Index", "for CallSizeTracker"); err != nil {
			return err
		}
		index, err := t.uintValue("index for CallSizeTracker")
		if err != nil {
			return err
		}

		if err := t.expect("Size", "for CallSizeTracker"); err != nil {
			return err
		}
		size, err := t.intValue("size value for CallSizeTracker")
		if err != nil {
			return err
		}

		if int(index) >= len(state.CallSizeTrackers) {
			state.CallSizeTrackers = resizeInt64(state.CallSizeTrackers, int(index)+1)
		}
		state.CallSizeTrackers[index] = size
		return nil
	}

	return t.errorf("unexpected BTB token '%s'", keyword)
}

func resizeUint64(s []uint64, size int) []uint64 {
	if size <= len(s) {
		return s[:size]
	}
	return append(s, make([]uint64, size-len(s))...)
}

func resizeInt64(s []int64, size int) []int64 {
	if size <= len(s) {
		return s[:size]
	}
	return append(s, make([]int64, size-len(s))...)
}
