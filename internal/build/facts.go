package build

// Facts are the status lines rotated while a build runs. They are cosmetic
// and independent of progress.
var Facts = []string{
	"Analyzing your website and business model...",
	"Researching your industry and competitors...",
	"Training your agent on industry best practices...",
	"Creating personalized conversation flows...",
	"Setting up intelligent lead qualification rules...",
	"Configuring your agent's personality and tone...",
	"Optimizing responses for maximum conversion...",
	"Testing agent responses across different scenarios...",
	"Building your custom knowledge base...",
	"Finalizing deployment settings...",
	"Almost ready! Putting the finishing touches...",
}
