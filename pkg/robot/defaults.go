package robot

// Actuator names on the stock robot.
const (
	// Control Hub motors
	FrontLeft = "FrontLeft"
	BackLeft  = "BackLeft"
	FrontArm  = "FrontArm"
	TestMotor = "TestMotor"

	// Control Hub servos
	ClawServoRight = "ClawServoRight"
	ClawServoLeft  = "ClawServoLeft"
	LeftArm        = "LeftArm"

	// Expansion Hub motors
	FrontRight    = "FrontRight"
	BackRight     = "BackRight"
	LinSlideLower = "LinSlideLower"
	LinSlideUpper = "LinSlideUpper"

	// Expansion Hub servos
	LinearServo = "LinearServo"
	RightArm    = "RightArm"
)

// Group names on the stock robot.
const (
	GroupClaw      = "claw"
	GroupArm       = "arm"
	GroupFrontArm  = "front_arm"
	GroupLinSlide  = "lin_slide"
	GroupTestMotor = "test_motor"
)

// DefaultConfig returns the wiring of the stock robot on the simulated
// backend, testing the linear slides.
func DefaultConfig() *Config {
	cfg := &Config{
		Hardware: HardwareConfig{Backend: BackendSim},
		Hubs: []HubConfig{
			{
				Name: "Control Hub",
				Motors: []MotorConfig{
					{Name: FrontLeft, ID: 1},
					{Name: BackLeft, ID: 2},
					{Name: FrontArm, ID: 3, Bounds: &MotorBounds{Lower: 0, Upper: 1000}},
					{Name: TestMotor, ID: 4, Bounds: &MotorBounds{Lower: 0, Upper: 1000}},
				},
				Servos: []ServoConfig{
					{Name: ClawServoRight, ID: 5, Bounds: &ServoBounds{Lower: 0.0, Upper: 0.21}},
					{Name: ClawServoLeft, ID: 6, Bounds: &ServoBounds{Lower: 0.0, Upper: 0.21}},
					{Name: LeftArm, ID: 7, Bounds: &ServoBounds{Lower: 0.15, Upper: 0.5}},
				},
			},
			{
				Name: "Expansion Hub",
				Motors: []MotorConfig{
					{Name: FrontRight, ID: 8},
					{Name: BackRight, ID: 9},
					{Name: LinSlideLower, ID: 10, Bounds: &MotorBounds{Lower: -20, Upper: 20}},
					{Name: LinSlideUpper, ID: 11, Bounds: &MotorBounds{Lower: -20, Upper: 20}},
				},
				Servos: []ServoConfig{
					{Name: LinearServo, ID: 12},
					{Name: RightArm, ID: 13, Bounds: &ServoBounds{Lower: 0.15, Upper: 0.5}},
				},
			},
		},
		Groups: []Group{
			{Name: GroupClaw, Actuators: []string{ClawServoRight, ClawServoLeft}, Mirror: MirrorComplement},
			{Name: GroupArm, Actuators: []string{LeftArm, RightArm}, Mirror: MirrorComplement},
			{Name: GroupFrontArm, Actuators: []string{FrontArm}, Power: 0.5},
			{Name: GroupLinSlide, Actuators: []string{LinSlideLower, LinSlideUpper}, Mirror: MirrorNegate, Power: 0.01},
			{Name: GroupTestMotor, Actuators: []string{TestMotor}, Power: 0.5},
		},
		Test: []string{GroupLinSlide},
		Defaults: DefaultsConfig{
			Hz:         50,
			DebugLevel: 1,
		},
	}
	if err := cfg.Validate(); err != nil {
		panic("robot: invalid default config: " + err.Error())
	}
	return cfg
}
