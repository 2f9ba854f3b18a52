// Package notifications delivers separation outcomes via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when notifications are disabled. Callers
// depend only on the small Service interface.
package notifications
