package task

import (
	"context"
	"fmt"
	"path"
	"strings"

	"curator/llm"
)

// fakeStore is an in-memory Store for lifecycle tests. Files and directories
// are tracked as workspace-relative slash paths.
type fakeStore struct {
	files     map[string]bool
	dirs      map[string]bool
	moves     []string
	commands  []string
	deleted   []string
	failMoves map[string]bool   // sources whose move always fails
	cmdOutput map[string]string // command -> stdout
	cmdErr    map[string]error  // command -> error
}

func newFakeStore(files ...string) *fakeStore {
	s := &fakeStore{
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		failMoves: make(map[string]bool),
		cmdOutput: make(map[string]string),
		cmdErr:    make(map[string]error),
	}
	for _, f := range files {
		s.files[f] = true
		s.addDirs(path.Dir(f))
	}
	return s
}

func (s *fakeStore) addDirs(dir string) {
	for p := dir; p != "" && p != "." && p != "/"; p = path.Dir(p) {
		s.dirs[p] = true
	}
}

func (s *fakeStore) MoveOrRename(source, target string) error {
	if s.failMoves[source] {
		return fmt.Errorf("forced failure for %s", source)
	}
	if source == target {
		return fmt.Errorf("source and target are identical: %s", source)
	}
	if !s.files[source] {
		return fmt.Errorf("source not found: %s", source)
	}
	if s.files[target] {
		return fmt.Errorf("target already exists: %s", target)
	}
	delete(s.files, source)
	s.files[target] = true
	s.moves = append(s.moves, source+" -> "+target)
	return nil
}

func (s *fakeStore) DirectoryExists(p string) bool { return s.dirs[p] }

func (s *fakeStore) CreateDirectory(p string) error {
	s.addDirs(p)
	return nil
}

func (s *fakeStore) DeleteIfEmpty(p string) {
	for f := range s.files {
		if strings.HasPrefix(f, p+"/") {
			return
		}
	}
	for d := range s.dirs {
		if strings.HasPrefix(d, p+"/") {
			return
		}
	}
	delete(s.dirs, p)
	s.deleted = append(s.deleted, p)
}

func (s *fakeStore) RunCommand(_ context.Context, command string) (string, string, error) {
	s.commands = append(s.commands, command)
	if err, ok := s.cmdErr[command]; ok {
		return "", "boom", err
	}
	if out, ok := s.cmdOutput[command]; ok {
		return out, "", nil
	}
	return "ok\n", "", nil
}

// fakeAdapter replays scripted responses and records every prompt it saw.
type fakeAdapter struct {
	responses []string
	prompts   []string
	err       error
}

func (a *fakeAdapter) Send(_ context.Context, messages []llm.Message) (*llm.Message, error) {
	a.prompts = append(a.prompts, messages[len(messages)-1].Content)
	if a.err != nil {
		return nil, a.err
	}
	i := len(a.prompts) - 1
	if i >= len(a.responses) {
		return nil, llm.ErrEmptyResponse
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: a.responses[i]}, nil
}

func (a *fakeAdapter) ModelName() string { return "fake:model" }

func (a *fakeAdapter) Available() bool { return true }
