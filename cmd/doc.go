// Command main trains a character-level recurrent network on a short sequence
// ("hello" by default) and then predicts the next character for each seed
// typed on stdin, until "quit" is entered.
package main
