// Package telegram is the control surface.
//
// Client is a minimal Bot API client (sendMessage, editMessageText,
// getUpdates long polling). Bot runs the command loop and translates
// chat commands into monitor.Service calls; command mistakes come back
// to the chat synchronously, loop output arrives asynchronously through
// the notify.Transport adapter.
package telegram
