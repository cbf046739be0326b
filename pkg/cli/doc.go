/*
Package cli provides command-line utilities for the vega command.

Output Formatting:

Command results can be rendered as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress Reporting:

For long-running operations such as seeding, use the progress reporter:

	progress := cli.NewProgress(os.Stdout, total)
	for i := 0; i < total; i++ {
		progress.Advance(1)
	}
	progress.Done()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
*/
package cli
