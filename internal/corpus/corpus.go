// Package corpus holds small programs with known input and output, used by
// the tests of every backend.
package corpus

import "strings"

// Program is a source text with the output it must produce for Input.
type Program struct {
	Name   string
	Source string
	Input  string
	Output string
}

// HelloWorld is the canonical 106-command program.
const HelloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

// Programs is the shared test corpus.
var Programs = []Program{
	{Name: "hello", Source: HelloWorld, Output: "Hello World!\n"},
	{Name: "echo4", Source: ",.,.,.,.", Input: "hoge", Output: "hoge"},
	{Name: "cat", Source: ",[.[-],]", Input: "abc", Output: "abc"},
	{Name: "reverse", Source: ">,[>,]<[.<]", Input: "stressed", Output: "desserts"},
	{Name: "add-digits", Source: ",>,[-<+>]<" + strings.Repeat("-", 48) + ".", Input: "34", Output: "7"},
	{Name: "fan-out", Source: "++++[->+++>+++++<<]>.>.", Output: "\x0c\x14"},
	{Name: "negative-mul", Source: "+++++[->--<]>.", Output: "\xf6"},
	{Name: "offset-transfer", Source: ">>+++[-<<++>>]<<.", Output: "\x06"},
	{Name: "wrap-cell", Source: "-.", Output: "\xff"},
	{Name: "clear-then-write", Source: "+++++[-].", Output: "\x00"},
	{Name: "scan-back", Source: "+>+>+>+<<<[>]<[-<]>.", Output: "\x00"},
	{Name: "eof-unchanged", Source: "+++,.", Output: "\x03"},
	{Name: "nested", Source: "++[>+++[>++<-]<-]>>.", Output: "\x0c"},
	{Name: "comments", Source: "this is + a comment +\n+ with text + .", Output: "\x04"},
	{Name: "scan-stride", Source: "+>>+>>+<<<<[>>]<<.", Output: "\x01"},
}
