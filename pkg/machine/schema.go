package machine

// definitionSchema is the JSON schema a machine definition file must
// conform to, once converted from YAML.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "required": ["name"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "goals": {
      "type": "array",
      "items": {"$ref": "#/definitions/goal"}
    },
    "rules": {
      "type": "array",
      "items": {"$ref": "#/definitions/rule"}
    },
    "contributions": {
      "type": "array",
      "items": {"$ref": "#/definitions/rule"}
    }
  },
  "definitions": {
    "goal": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "context": {"type": "string"},
        "displayName": {"type": "string"},
        "environment": {"type": "string"},
        "approvalRequired": {"type": "boolean"},
        "retryFeasible": {"type": "boolean"},
        "sideEffect": {"type": "string"},
        "descriptions": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "rule": {
      "type": "object",
      "required": ["name", "test", "goals"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "test": {"$ref": "#/definitions/test"},
        "goals": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    },
    "test": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "additionalProperties": false,
      "properties": {
        "all": {"type": "array", "items": {"$ref": "#/definitions/test"}},
        "any": {"type": "array", "items": {"$ref": "#/definitions/test"}},
        "not": {"$ref": "#/definitions/test"},
        "materialChange": {
          "oneOf": [
            {"type": "string", "enum": ["java", "node"]},
            {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "include": {"type": "array", "items": {"type": "string"}},
                "exclude": {"type": "array", "items": {"type": "string"}}
              }
            }
          ]
        },
        "hasFile": {"type": "string", "minLength": 1},
        "branch": {"type": "string", "minLength": 1},
        "tag": {"type": "string", "minLength": 1},
        "defaultBranch": {"type": "boolean"},
        "isTag": {"type": "boolean"},
        "isMaven": {"type": "boolean"},
        "isNode": {"type": "boolean"},
        "hasDockerfile": {"type": "boolean"},
        "hasCloudFoundryManifest": {"type": "boolean"},
        "hasKubernetesSpec": {"type": "boolean"}
      }
    }
  }
}`
