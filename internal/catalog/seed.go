package catalog

// seedExercises is the built-in registry. IDs are stable slugs so committed
// sets survive process restarts and catalog reloads.
var seedExercises = []Exercise{
	{ID: "bench-press", Name: "Bench Press", Category: CategoryPush, PrimaryMuscle: "chest", SecondaryMuscles: []string{"triceps", "front delts"}, Aliases: []string{"flat bench"}},
	{ID: "incline-bench-press", Name: "Incline Bench Press", Category: CategoryPush, PrimaryMuscle: "upper chest", SecondaryMuscles: []string{"triceps", "front delts"}, Aliases: []string{"incline press", "incline bench"}},
	{ID: "overhead-press", Name: "Overhead Press", Category: CategoryPush, PrimaryMuscle: "shoulders", SecondaryMuscles: []string{"triceps"}, Aliases: []string{"ohp", "military press", "shoulder press", "strict press"}},
	{ID: "dip", Name: "Dip", Category: CategoryPush, PrimaryMuscle: "chest", SecondaryMuscles: []string{"triceps"}, Aliases: []string{"dips", "chest dip"}},
	{ID: "push-up", Name: "Push-Up", Category: CategoryPush, PrimaryMuscle: "chest", SecondaryMuscles: []string{"triceps", "core"}, Aliases: []string{"pushup", "push ups"}},
	{ID: "tricep-extension", Name: "Tricep Extension", Category: CategoryAccessory, PrimaryMuscle: "triceps", Aliases: []string{"skullcrusher", "skull crushers", "tricep pushdown", "pushdown"}},
	{ID: "lateral-raise", Name: "Lateral Raise", Category: CategoryAccessory, PrimaryMuscle: "side delts", Aliases: []string{"side raise", "lat raise"}},

	{ID: "deadlift", Name: "Deadlift", Category: CategoryPull, PrimaryMuscle: "posterior chain", SecondaryMuscles: []string{"lats", "traps", "hamstrings"}, Aliases: []string{"conventional deadlift"}},
	{ID: "romanian-deadlift", Name: "Romanian Deadlift", Category: CategoryLegs, PrimaryMuscle: "hamstrings", SecondaryMuscles: []string{"glutes", "lower back"}, Aliases: []string{"rdl", "stiff leg deadlift"}},
	{ID: "barbell-row", Name: "Barbell Row", Category: CategoryPull, PrimaryMuscle: "lats", SecondaryMuscles: []string{"rhomboids", "biceps"}, Aliases: []string{"bent over row", "pendlay row", "row"}},
	{ID: "pull-up", Name: "Pull-Up", Category: CategoryPull, PrimaryMuscle: "lats", SecondaryMuscles: []string{"biceps"}, Aliases: []string{"pullup", "pull ups", "chin up", "chinup"}},
	{ID: "lat-pulldown", Name: "Lat Pulldown", Category: CategoryPull, PrimaryMuscle: "lats", SecondaryMuscles: []string{"biceps"}, Aliases: []string{"pulldown"}},
	{ID: "bicep-curl", Name: "Bicep Curl", Category: CategoryAccessory, PrimaryMuscle: "biceps", Aliases: []string{"curl", "curls", "hammer curl", "preacher curl"}},
	{ID: "face-pull", Name: "Face Pull", Category: CategoryAccessory, PrimaryMuscle: "rear delts", SecondaryMuscles: []string{"traps"}},

	{ID: "squat", Name: "Squat", Category: CategoryLegs, PrimaryMuscle: "quadriceps", SecondaryMuscles: []string{"glutes", "core"}, Aliases: []string{"back squat", "high bar squat", "low bar squat"}},
	{ID: "front-squat", Name: "Front Squat", Category: CategoryLegs, PrimaryMuscle: "quadriceps", SecondaryMuscles: []string{"core", "upper back"}},
	{ID: "leg-press", Name: "Leg Press", Category: CategoryLegs, PrimaryMuscle: "quadriceps", SecondaryMuscles: []string{"glutes"}},
	{ID: "lunge", Name: "Lunge", Category: CategoryLegs, PrimaryMuscle: "quadriceps", SecondaryMuscles: []string{"glutes"}, Aliases: []string{"walking lunge", "split squat", "bulgarian split squat"}},
	{ID: "leg-curl", Name: "Leg Curl", Category: CategoryLegs, PrimaryMuscle: "hamstrings", Aliases: []string{"hamstring curl"}},
	{ID: "calf-raise", Name: "Calf Raise", Category: CategoryLegs, PrimaryMuscle: "calves"},
	{ID: "hip-thrust", Name: "Hip Thrust", Category: CategoryLegs, PrimaryMuscle: "glutes", Aliases: []string{"glute bridge"}},

	{ID: "plank", Name: "Plank", Category: CategoryCore, PrimaryMuscle: "core"},
	{ID: "hanging-leg-raise", Name: "Hanging Leg Raise", Category: CategoryCore, PrimaryMuscle: "abs", Aliases: []string{"leg raise", "knee raise"}},
	{ID: "ab-wheel", Name: "Ab Wheel Rollout", Category: CategoryCore, PrimaryMuscle: "abs", Aliases: []string{"ab rollout"}},
	{ID: "cable-crunch", Name: "Cable Crunch", Category: CategoryCore, PrimaryMuscle: "abs", Aliases: []string{"crunch"}},
}
