// Package config loads shelfswap configuration.
//
// Sources, later ones winning:
//  1. Built-in defaults (Default)
//  2. A YAML file, decoded strictly: unknown keys are errors
//  3. A .env file in the working directory, if present (godotenv)
//  4. Environment variables (SHELFSWAP_DB, MINIO_ENDPOINT, ...)
//
// The merged result is validated against the embedded CUE schema
// (schema.cue) plus checks CUE cannot express, such as unique seed emails.
package config
