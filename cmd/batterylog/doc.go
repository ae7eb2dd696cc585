// Command batterylog reconstructs Apple Unified Log records from a
// .logarchive or the live log store and prints the most recent battery
// health MaxCapacity value.
//
// Logs go to stderr; stdout carries only the extracted value, so the
// command composes with shell pipelines. Subcommands cover planning a
// search, reviewing recorded runs, and managing the configuration file.
package main
