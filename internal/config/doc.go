// Package config loads the JSON configuration of the tetgeo command.
package config
