package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down               key.Binding
	NextFile, PrevFile     key.Binding
	NextHunk, PrevHunk     key.Binding
	NextCommit, PrevCommit key.Binding
	MoveLater, MoveEarly   key.Binding
	Skip, Toggle           key.Binding
	Help, Accept, Quit     key.Binding
}

func bind(help, desc string, ks ...string) key.Binding {
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(help, desc))
}

var keys = keyMap{
	Up:         bind("↑/k", "up", "up", "k"),
	Down:       bind("↓/j", "down", "down", "j"),
	NextFile:   bind("n/tab", "next file", "n", "tab"),
	PrevFile:   bind("N/S-tab", "prev file", "N", "shift+tab"),
	NextHunk:   bind("]", "next hunk", "]"),
	PrevHunk:   bind("[", "prev hunk", "["),
	NextCommit: bind("}/J", "next commit", "}", "J"),
	PrevCommit: bind("{/K", "prev commit", "{", "K"),
	MoveLater:  bind(">", "move file to next commit", ">"),
	MoveEarly:  bind("<", "move file to prev commit", "<"),
	Skip:       bind("x", "skip/unskip commit", "x"),
	Toggle:     bind("v", "unified/split", "v"),
	Help:       bind("?", "help", "?"),
	Accept:     bind("enter", "accept plan", "enter"),
	Quit:       bind("q", "quit", "q", "ctrl+c"),
}
