/*
Package research answers a free-text research question with a structured
response.

A query runs through the agent loop: the model may call the search, wikipedia
and save_text_to_file tools any number of times before it replies. The final
reply must be a JSON document matching [Response]; [Parse] turns it into a
value or a [*ParseError] that keeps the raw text.

# Basic Usage

	a, err := research.NewAgent(openai.GPT4oMini(), searchTool, wikiTool, saveTool)
	if err != nil {
		return err
	}

	assistant, err := research.New(research.WithAgent(a))
	if err != nil {
		return err
	}

	result, err := assistant.Research(ctx, "the history of the printing press")
	var perr *research.ParseError
	switch {
	case errors.As(err, &perr):
		fmt.Println("Error parsing response:", perr.Cause)
		fmt.Println("Raw response:", result.Raw)
	case err != nil:
		return err
	default:
		fmt.Println(result.Response)
	}

# Tool Reporting

The model reports the tools it used in tools_used. The assistant also records
every tool invocation it executed. [Result.UnreportedTools] and
[Result.UnobservedTools] expose the difference between the two without
reconciling them.

# Conversation History

An [Assistant] keeps the queries and final answers of earlier calls and sends
them with every new query. Tool calls and tool results of a run are never kept.
*/
package research
