package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/illarion/passvault/cmd"
	"github.com/illarion/passvault/internal/config"
	"github.com/illarion/passvault/internal/genpass"
	"github.com/illarion/passvault/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "add":
		runAdd(os.Args[2:])
	case "get":
		runGet(os.Args[2:])
	case "list", "ls":
		runList(os.Args[2:])
	case "rm":
		runRm(os.Args[2:])
	case "generate":
		runGenerate(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "compact":
		runCompact(os.Args[2:])
	case "keyring":
		runKeyring(os.Args[2:])
	case "completion":
		runCompletion(os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// setup parses the global and command flags and builds the App.
// register may add command specific flags to fs before parsing.
func setup(name string, args []string, register func(fs *pflag.FlagSet)) (*cmd.App, []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	cfg.RegisterFlags(fs)
	if register != nil {
		register(fs)
	}
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	return &cmd.App{Config: cfg, Log: log, Out: os.Stdout, In: os.Stdin}, fs.Args()
}

// finish flushes the logger and reports err, if any
func finish(app *cmd.App, command string, err error) {
	_ = app.Log.Sync()
	if err == nil {
		return
	}
	if errors.Is(err, cmd.ErrUsage) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Run 'passvault help %s' for usage\n", command)
		os.Exit(2)
	}
	cmd.HandleError(err)
}

func runInit(args []string) {
	app, _ := setup("init", args, nil)
	finish(app, "init", app.Init())
}

func runAdd(args []string) {
	var opts cmd.AddOptions
	app, _ := setup("add", args, func(fs *pflag.FlagSet) {
		fs.StringVarP(&opts.Service, "service", "s", "", "service name")
		fs.StringVarP(&opts.Username, "username", "u", "", "username for the service")
		fs.BoolVarP(&opts.Generate, "generate", "g", false, "generate a random password")
		fs.IntVarP(&opts.Length, "length", "l", genpass.DefaultLength, "length of the generated password")
		fs.BoolVar(&opts.Special, "special", false, "include special characters in the generated password")
	})
	finish(app, "add", app.Add(opts))
}

func runGet(args []string) {
	var service string
	app, _ := setup("get", args, func(fs *pflag.FlagSet) {
		fs.StringVarP(&service, "service", "s", "", "service name")
	})
	finish(app, "get", app.Get(service))
}

func runList(args []string) {
	app, _ := setup("list", args, nil)
	finish(app, "list", app.List())
}

func runRm(args []string) {
	var service string
	var force bool
	app, _ := setup("rm", args, func(fs *pflag.FlagSet) {
		fs.StringVarP(&service, "service", "s", "", "service name")
		fs.BoolVar(&force, "force", false, "remove without confirmation")
	})
	finish(app, "rm", app.Remove(service, force))
}

func runGenerate(args []string) {
	var length int
	var special bool
	app, _ := setup("generate", args, func(fs *pflag.FlagSet) {
		fs.IntVarP(&length, "length", "l", genpass.DefaultLength, "password length")
		fs.BoolVar(&special, "special", false, "include special characters")
	})
	finish(app, "generate", app.Generate(length, special))
}

func runStatus(args []string) {
	app, _ := setup("status", args, nil)
	finish(app, "status", app.Status())
}

func runCompact(args []string) {
	app, _ := setup("compact", args, nil)
	finish(app, "compact", app.Compact())
}

func runKeyring(args []string) {
	app, rest := setup("keyring", args, nil)
	if len(rest) < 1 {
		finish(app, "keyring", fmt.Errorf("%w: keyring requires a subcommand (save, delete, status)", cmd.ErrUsage))
		return
	}

	switch rest[0] {
	case "save":
		finish(app, "keyring", app.KeyringSave())
	case "delete":
		finish(app, "keyring", app.KeyringDelete())
	case "status":
		finish(app, "keyring", app.KeyringStatus())
	default:
		finish(app, "keyring", fmt.Errorf("%w: unknown keyring subcommand %q", cmd.ErrUsage, rest[0]))
	}
}

func runCompletion(args []string) {
	app, rest := setup("completion", args, nil)
	if len(rest) < 1 {
		finish(app, "completion", fmt.Errorf("%w: completion requires a shell (bash, zsh, fish)", cmd.ErrUsage))
		return
	}
	finish(app, "completion", app.Completion(rest[0]))
}

func printUsage() {
	fmt.Println("passvault - Encrypted local password vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  passvault <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a new encrypted vault")
	fmt.Println("  add         Store or replace a credential")
	fmt.Println("  get         Print the password for a service")
	fmt.Println("  list, ls    List stored services and usernames")
	fmt.Println("  rm          Remove a credential")
	fmt.Println("  generate    Generate a random password")
	fmt.Println("  status      Show vault information (no password needed)")
	fmt.Println("  compact     Compact a bolt vault to reclaim disk space")
	fmt.Println("  keyring     Manage the master password in the OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Global flags:")
	fmt.Println("  -f, --file <path>      Vault location (default ~/.passvault.json)")
	fmt.Println("  --backend <file|bolt>  Storage backend (default file)")
	fmt.Println("  -v, --verbose          Enable debug logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  passvault init                          # Create new vault")
	fmt.Println("  passvault add -s github -u alice        # Store a password")
	fmt.Println("  passvault add -s gmail -u alice -g      # Store a generated password")
	fmt.Println("  passvault get -s github                 # Print a password")
	fmt.Println()
	fmt.Println("Use 'passvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("passvault init")
		fmt.Println()
		fmt.Println("Creates an empty vault protected by a master password.")
		fmt.Println("The password is not stored anywhere unless you save it to the keyring.")
		fmt.Println("If it is lost, the vault cannot be opened.")
		fmt.Println()
		fmt.Println("Environment:")
		fmt.Println("  PASSVAULT_PASSWORD     Use this password instead of prompting")
		fmt.Println("  PASSVAULT_KDF_TIME     Argon2id iterations (default 2)")
		fmt.Println("  PASSVAULT_KDF_MEMORY   Argon2id memory in KiB (default 19456)")
		fmt.Println("  PASSVAULT_KDF_THREADS  Argon2id parallelism (default 1)")
	case "add":
		fmt.Println("passvault add -s <service> [-u <username>] [-g [-l <length>] [--special]]")
		fmt.Println()
		fmt.Println("Stores a credential. An existing credential for the same service is replaced.")
		fmt.Println("The password is read from the terminal, or from stdin when piped.")
		fmt.Println("Creates the vault if it does not exist yet.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -s, --service    Service name (required)")
		fmt.Println("  -u, --username   Username for the service")
		fmt.Println("  -g, --generate   Generate a random password instead of reading one")
		fmt.Println("  -l, --length     Generated password length (default 16)")
		fmt.Println("  --special        Include special characters in the generated password")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  passvault add -s github -u alice")
		fmt.Println("  echo 'p@ssw0rd123' | passvault add -s github -u alice")
		fmt.Println("  passvault add -s gmail -u alice -g -l 24 --special")
	case "get":
		fmt.Println("passvault get -s <service>")
		fmt.Println()
		fmt.Println("Prints the password for a service on stdout.")
		fmt.Println("The username, if any, is printed on stderr.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  passvault get -s github | xclip")
	case "list", "ls":
		fmt.Println("passvault list")
		fmt.Println()
		fmt.Println("Lists services with username and last modification time.")
		fmt.Println("Passwords are never shown.")
	case "rm":
		fmt.Println("passvault rm -s <service> [--force]")
		fmt.Println()
		fmt.Println("Removes the credential for a service.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -s, --service  Service name (required)")
		fmt.Println("  --force        Remove without confirmation")
	case "generate":
		fmt.Println("passvault generate [-l <length>] [--special]")
		fmt.Println()
		fmt.Println("Prints a random password. The vault is not touched.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -l, --length  Password length, 1 to 255 (default 16)")
		fmt.Println("  --special     Include special characters")
	case "status":
		fmt.Println("passvault status")
		fmt.Println()
		fmt.Println("Shows the vault location, ID, record count, timestamps,")
		fmt.Println("key derivation settings, keyring state and git status.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "compact":
		fmt.Println("passvault compact")
		fmt.Println()
		fmt.Println("Compacts a bolt vault database to reclaim unused disk space.")
		fmt.Println("The file backend rewrites the whole vault on every change and needs no compaction.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("passvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the master password in the OS keyring.")
		fmt.Println("A stored password is used automatically when PASSVAULT_PASSWORD is not set.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  save    Verify the password and store it")
		fmt.Println("  delete  Remove the stored password")
		fmt.Println("  status  Show whether a password is stored")
	case "completion":
		fmt.Println("passvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(passvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(passvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  passvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
