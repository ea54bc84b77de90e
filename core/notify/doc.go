// Package notify implements the dashboard's toast queue. Notifications wait in
// an unbounded FIFO and at most a fixed number are displayed at once; a
// periodic sweep expires displayed toasts and promotes pending ones.
package notify
