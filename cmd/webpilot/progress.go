package main

import (
	"fmt"
	"io"
	"sync"

	"webpilot-go/core/state"
	"webpilot-go/presentation"
)

// progressCallbacks prints run progress as one line per event.
func progressCallbacks(w io.Writer) *presentation.Callbacks {
	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format+"\n", args...)
	}

	return &presentation.Callbacks{
		OnPageOpened: func(url string, err error) {
			if err != nil {
				printf("! open %s: %v", url, err)
				return
			}
			printf("> opened %s", url)
		},
		OnRunStarted: func(runID, objective string) {
			printf("> run %s: %s", shortID(runID), objective)
		},
		OnDecisionMade: func(runID string, tick int, action, target, content string) {
			switch {
			case content != "":
				printf("  [%2d] %s %q <- %q", tick, action, target, content)
			case target != "":
				printf("  [%2d] %s %q", tick, action, target)
			default:
				printf("  [%2d] %s", tick, action)
			}
		},
		OnActionExecuted: func(runID string, tick int, result string) {
			printf("       %s", result)
		},
		OnRunFinished: func(runID string, st state.LoopState, outcome string, ticks int, err error) {
			printf("> run %s %s after %d ticks", shortID(runID), st, ticks)
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
