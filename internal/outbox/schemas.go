package outbox

const workoutCommittedSchema = `{
  "type": "object",
  "title": "WorkoutCommitted",
  "properties": {
    "workout_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date-time"},
    "source": {"type": "string"},
    "exercise_ids": {"type": "array", "items": {"type": "string"}},
    "total_sets": {"type": "integer"},
    "total_volume_lb": {"type": "number"},
    "xp_earned": {"type": "integer"},
    "committed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["workout_id", "tenant_id", "user_id", "date", "source", "exercise_ids", "total_sets", "total_volume_lb", "xp_earned", "committed_at"],
  "additionalProperties": false
}`

const recordSetSchema = `{
  "type": "object",
  "title": "RecordSet",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "exercise_id": {"type": "string"},
    "pr_type": {"type": "string"},
    "value": {"type": "number"},
    "weight_lb": {"type": "number"},
    "achieved_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "user_id", "exercise_id", "pr_type", "value", "achieved_at"],
  "additionalProperties": false
}`

const progressAdvancedSchema = `{
  "type": "object",
  "title": "ProgressAdvanced",
  "properties": {
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "total_xp": {"type": "integer"},
    "level": {"type": "integer"},
    "rank": {"type": "string"},
    "current_streak": {"type": "integer"},
    "leveled_up": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "user_id", "total_xp", "level", "current_streak", "occurred_at"],
  "additionalProperties": false
}`
