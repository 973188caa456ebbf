package truthpack

// Embedded JSON Schemas for the four truthpack records (spec.md §4.I).
// Every schema sets "additionalProperties": true throughout, satisfying
// the "readers MUST tolerate unknown fields" invariant: validation
// exists to catch structurally corrupt files, not to reject forward-
// compatible additions.

const routesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": true,
  "required": ["version", "routes"],
  "properties": {
    "version": {"type": "integer"},
    "routes": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": true,
        "required": ["method", "path", "handler"],
        "properties": {
          "method": {"type": "string"},
          "path": {"type": "string"},
          "handler": {"type": "string"},
          "middleware": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

const envSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": true,
  "required": ["version", "variables"],
  "properties": {
    "version": {"type": "integer"},
    "variables": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": true,
        "required": ["name", "type", "required"],
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"},
          "required": {"type": "boolean"},
          "description": {"type": "string"},
          "default": {"type": "string"}
        }
      }
    }
  }
}`

const authSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": true,
  "required": ["version", "rules"],
  "properties": {
    "version": {"type": "integer"},
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": true,
        "required": ["path", "requiresAuth"],
        "properties": {
          "path": {"type": "string"},
          "requiresAuth": {"type": "boolean"},
          "roles": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

const contractsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": true,
  "required": ["version", "endpoints", "types"],
  "properties": {
    "version": {"type": "integer"},
    "endpoints": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": true,
        "required": ["method", "path", "responseType"],
        "properties": {
          "method": {"type": "string"},
          "path": {"type": "string"},
          "requestType": {"type": "string"},
          "responseType": {"type": "string"}
        }
      }
    },
    "types": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": true,
        "required": ["name", "schema"],
        "properties": {
          "name": {"type": "string"},
          "schema": {"type": "string"}
        }
      }
    }
  }
}`
