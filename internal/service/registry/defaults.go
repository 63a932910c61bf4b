package registry

import (
	"github.com/seu-repo/workforce-voice/internal/domain"
)

// Built-in intents understood by the workforce assistant.
const (
	IntentGreeting       = "greeting"
	IntentHelp           = "help"
	IntentClockIn        = "clock_in"
	IntentClockOut       = "clock_out"
	IntentStartBreak     = "start_break"
	IntentEndBreak       = "end_break"
	IntentCompleteTask   = "complete_task"
	IntentCreateTask     = "create_task"
	IntentAssignTask     = "assign_task"
	IntentSendMessage    = "send_message"
	IntentCheckSchedule  = "check_schedule"
	IntentRequestTimeOff = "request_time_off"
	IntentViewTasks      = "view_tasks"
	IntentSetPriority    = "set_priority"
	IntentNavigate       = "navigate"
)

// DefaultCategories groups the built-in commands.
func DefaultCategories() []domain.CommandCategory {
	return []domain.CommandCategory{
		{ID: "general", Name: "General", Description: "Greetings and help"},
		{ID: "time", Name: "Time tracking", Description: "Clocking and breaks"},
		{ID: "tasks", Name: "Tasks", Description: "Create, assign and complete work items"},
		{ID: "communication", Name: "Communication", Description: "Messages to teammates"},
		{ID: "schedule", Name: "Schedule", Description: "Shifts and time off"},
		{ID: "navigation", Name: "Navigation", Description: "Move around the app"},
	}
}

// DefaultDefinitions is the built-in workforce command set.
func DefaultDefinitions() []domain.CommandDefinition {
	return []domain.CommandDefinition{
		{
			ID:               "greeting",
			Triggers:         []string{"hello", "hi", "hey", "good morning", "good afternoon"},
			Intent:           IntentGreeting,
			Category:         "general",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "Hi! I'm the {{businessName}} assistant. How can I help?",
			Examples:         []string{"good morning"},
		},
		{
			ID:               "help",
			Triggers:         []string{"help", "what can you do", "show commands"},
			Intent:           IntentHelp,
			Category:         "general",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "I can help with {{capabilities}}. Try saying \"clock in\" or \"complete task 5\".",
			Examples:         []string{"what can you do"},
		},
		{
			ID:               "clock-in",
			Triggers:         []string{"clock in", "clock me in", "start my shift", "punch in"},
			Intent:           IntentClockIn,
			Category:         "time",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "You're clocked in. Have a good shift!",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/timesheets/clock-in",
				Method:       "POST",
				BodyTemplate: `{"location":"{{location}}"}`,
				Label:        "Clock in",
			},
			Examples: []string{"clock in"},
		},
		{
			ID:               "clock-out",
			Triggers:         []string{"clock out", "clock me out", "end my shift", "punch out"},
			Intent:           IntentClockOut,
			Category:         "time",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "You're clocked out. See you next time.",
			Action: &domain.ActionTemplate{
				Kind:     domain.ActionAPICall,
				Endpoint: "/timesheets/clock-out",
				Method:   "POST",
				Label:    "Clock out",
			},
			Examples: []string{"clock out"},
		},
		{
			ID:               "start-break",
			Triggers:         []string{"start break", "start my break", "take a break", "going on break"},
			Intent:           IntentStartBreak,
			Category:         "time",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "Break started. Enjoy!",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/timesheets/breaks",
				Method:       "POST",
				BodyTemplate: `{"duration":"{{duration}}"}`,
				Label:        "Start break",
			},
			Examples: []string{"take a break"},
		},
		{
			ID:               "end-break",
			Triggers:         []string{"end break", "end my break", "back from break", "i'm back"},
			Intent:           IntentEndBreak,
			Category:         "time",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "Welcome back. Break ended.",
			Action: &domain.ActionTemplate{
				Kind:     domain.ActionAPICall,
				Endpoint: "/timesheets/breaks/current",
				Method:   "DELETE",
				Label:    "End break",
			},
		},
		{
			ID:               "complete-task",
			Triggers:         []string{"complete task", "finish task", "mark task", "close task", "task done"},
			Intent:           IntentCompleteTask,
			Category:         "tasks",
			Complexity:       domain.ComplexityModerate,
			ResponseTemplate: "Task {{taskIdentifier}} marked as complete.",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/tasks/{{taskIdentifier}}/status",
				Method:       "PATCH",
				BodyTemplate: `{"status":"completed"}`,
				Label:        "Complete task",
			},
			RequiredEntities: []string{string(domain.EntityTaskIdentifier)},
			Examples:         []string{"complete task 5"},
		},
		{
			ID:               "create-task",
			Triggers:         []string{"create task", "new task", "add task", "add a task", "create a task"},
			Intent:           IntentCreateTask,
			Category:         "tasks",
			Complexity:       domain.ComplexityModerate,
			ResponseTemplate: "Created a new task.",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/tasks",
				Method:       "POST",
				BodyTemplate: `{"title":"{{messageContent}}","project":"{{project}}","priority":"{{priority}}"}`,
				Label:        "Create task",
			},
			Examples: []string{"create a task for project apollo"},
		},
		{
			ID:                   "assign-task",
			Triggers:             []string{"assign task", "reassign task", "give task"},
			Intent:               IntentAssignTask,
			Category:             "tasks",
			Complexity:           domain.ComplexityBusiness,
			RequiresBusinessData: true,
			FallbackReason:       domain.ReasonWorkflowManagement,
			ResponseTemplate:     "Assigning task {{taskIdentifier}} to {{recipient}} needs a check in the scheduling system.",
			RequiredEntities:     []string{string(domain.EntityTaskIdentifier), string(domain.EntityRecipient)},
			Examples:             []string{"assign task 12 to Maria"},
		},
		{
			ID:               "send-message",
			Triggers:         []string{"send message", "send a message", "message", "tell"},
			Intent:           IntentSendMessage,
			Category:         "communication",
			Complexity:       domain.ComplexityModerate,
			ResponseTemplate: "Message sent to {{recipient}}.",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/messages",
				Method:       "POST",
				BodyTemplate: `{"to":"{{recipient}}","text":"{{messageContent}}"}`,
				Label:        "Send message",
			},
			RequiredEntities: []string{string(domain.EntityRecipient), string(domain.EntityMessageContent)},
			Examples:         []string{"send message to John about the delay"},
		},
		{
			ID:                   "check-schedule",
			Triggers:             []string{"my schedule", "check schedule", "when do i work", "next shift"},
			Intent:               IntentCheckSchedule,
			Category:             "schedule",
			Complexity:           domain.ComplexityBusiness,
			RequiresBusinessData: true,
			FallbackReason:       domain.ReasonRealTimeData,
			ResponseTemplate:     "Let me pull up your schedule from {{businessName}}.",
			Examples:             []string{"when is my next shift"},
		},
		{
			ID:                   "request-time-off",
			Triggers:             []string{"time off", "day off", "request leave", "vacation"},
			Intent:               IntentRequestTimeOff,
			Category:             "schedule",
			Complexity:           domain.ComplexityBusiness,
			RequiresBusinessData: true,
			FallbackReason:       domain.ReasonWorkflowManagement,
			ResponseTemplate:     "I'll route your time off request to your manager.",
			RequiredEntities:     []string{string(domain.EntityDate)},
			Examples:             []string{"request time off next friday"},
		},
		{
			ID:                   "view-tasks",
			Triggers:             []string{"my tasks", "show tasks", "list tasks", "what's on my list"},
			Intent:               IntentViewTasks,
			Category:             "tasks",
			Complexity:           domain.ComplexityModerate,
			RequiresBusinessData: true,
			FallbackReason:       domain.ReasonDatabaseOperation,
			ResponseTemplate:     "Here are your open tasks.",
			Action: &domain.ActionTemplate{
				Kind:  domain.ActionNavigate,
				Route: "/tasks",
				Label: "Open tasks",
			},
			Examples: []string{"show my tasks"},
		},
		{
			ID:               "set-priority",
			Triggers:         []string{"set priority", "change priority", "mark as urgent"},
			Intent:           IntentSetPriority,
			Category:         "tasks",
			Complexity:       domain.ComplexityModerate,
			ResponseTemplate: "Priority set to {{priority}}.",
			Action: &domain.ActionTemplate{
				Kind:         domain.ActionAPICall,
				Endpoint:     "/tasks/{{taskIdentifier}}/priority",
				Method:       "PATCH",
				BodyTemplate: `{"priority":"{{priority}}"}`,
				Label:        "Set priority",
			},
			RequiredEntities: []string{string(domain.EntityTaskIdentifier), string(domain.EntityPriority)},
			Examples:         []string{"set priority of task 3 to high"},
		},
		{
			ID:               "navigate",
			Triggers:         []string{"go to", "open", "navigate to", "show me"},
			Intent:           IntentNavigate,
			Category:         "navigation",
			Complexity:       domain.ComplexitySimple,
			ResponseTemplate: "Opening {{destination}}.",
			Action: &domain.ActionTemplate{
				Kind:  domain.ActionNavigate,
				Route: "/{{destination}}",
				Label: "Open",
			},
			Examples: []string{"go to dashboard"},
		},
	}
}

// Default returns a registry with the built-in definitions.
func Default() *Registry {
	r, err := New(DefaultDefinitions(), DefaultCategories())
	if err != nil {
		panic(err)
	}
	return r
}
