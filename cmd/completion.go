package cmd

import (
	"fmt"
)

// Completion writes the completion script for shell
func (a *App) Completion(shell string) error {
	switch shell {
	case "bash":
		fmt.Fprint(a.Out, bashCompletion)
	case "zsh":
		fmt.Fprint(a.Out, zshCompletion)
	case "fish":
		fmt.Fprint(a.Out, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s (supported: bash, zsh, fish)", shell)
	}
	return nil
}

const bashCompletion = `_passvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init add get list ls rm generate status compact keyring help completion"
    local globals="-f --file --backend -v --verbose"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    case "$prev" in
        -f|--file)
            _filedir
            return
            ;;
        --backend)
            COMPREPLY=($(compgen -W "file bolt" -- "$cur"))
            return
            ;;
        -s|--service)
            # Needs PASSVAULT_PASSWORD or a keyring entry to list services
            local services
            services=$(passvault list 2>/dev/null | tail -n +2 | awk '{print $1}')
            COMPREPLY=($(compgen -W "$services" -- "$cur"))
            return
            ;;
    esac

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            COMPREPLY=($(compgen -W "-s --service -u --username -g --generate -l --length --special $globals" -- "$cur"))
            ;;
        get)
            COMPREPLY=($(compgen -W "-s --service $globals" -- "$cur"))
            ;;
        rm)
            COMPREPLY=($(compgen -W "-s --service --force $globals" -- "$cur"))
            ;;
        generate)
            COMPREPLY=($(compgen -W "-l --length --special" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
        *)
            COMPREPLY=($(compgen -W "$globals" -- "$cur"))
            ;;
    esac
}

complete -F _passvault passvault
`

const zshCompletion = `#compdef passvault

_passvault() {
    local -a commands
    commands=(
        'init:Create a new encrypted vault'
        'add:Store or replace a credential'
        'get:Print the password for a service'
        'list:List stored services'
        'ls:List stored services'
        'rm:Remove a credential'
        'generate:Generate a random password'
        'status:Show vault information'
        'compact:Compact vault to reclaim disk space'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a globals
    globals=(
        '(-f --file)'{-f,--file}'[Path to the vault file]:vault file:_files'
        '--backend[Storage backend]:backend:(file bolt)'
        '(-v --verbose)'{-v,--verbose}'[Enable debug logging]'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'passvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _arguments $globals \
                        '(-s --service)'{-s,--service}'[Service name]:service:_passvault_services' \
                        '(-u --username)'{-u,--username}'[Username]:username:' \
                        '(-g --generate)'{-g,--generate}'[Generate the password]' \
                        '(-l --length)'{-l,--length}'[Generated password length]:length:' \
                        '--special[Include special characters]'
                    ;;
                get|rm)
                    _arguments $globals \
                        '(-s --service)'{-s,--service}'[Service name]:service:_passvault_services' \
                        '--force[Remove without confirmation]'
                    ;;
                generate)
                    _arguments \
                        '(-l --length)'{-l,--length}'[Password length]:length:' \
                        '--special[Include special characters]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'passvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _arguments $globals
                    ;;
            esac
            ;;
    esac
}

_passvault_services() {
    local -a services
    services=(${(f)"$(passvault list 2>/dev/null | tail -n +2 | awk '{print $1}')"})
    _describe -t services 'services' services
}

_passvault "$@"
`

const fishCompletion = `# passvault fish completions

set -l commands init add get list ls rm generate status compact keyring help completion

complete -c passvault -f

# Commands
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a add -d 'Store or replace a credential'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print a password'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a list -d 'List stored services'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List stored services'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove a credential'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a generate -d 'Generate a random password'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault information'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# global flags
complete -c passvault -s f -l file -r -F -d 'Path to the vault file'
complete -c passvault -l backend -x -a "file bolt" -d 'Storage backend'
complete -c passvault -s v -l verbose -d 'Enable debug logging'

# add flags
complete -c passvault -n "__fish_seen_subcommand_from add" -s u -l username -x -d 'Username'
complete -c passvault -n "__fish_seen_subcommand_from add" -s g -l generate -d 'Generate the password'
complete -c passvault -n "__fish_seen_subcommand_from add generate" -s l -l length -x -d 'Generated password length'
complete -c passvault -n "__fish_seen_subcommand_from add generate" -l special -d 'Include special characters'

# service names
complete -c passvault -n "__fish_seen_subcommand_from add get rm" -s s -l service -x -a "(passvault list 2>/dev/null | tail -n +2 | awk '{print \$1}')" -d 'Service name'
complete -c passvault -n "__fish_seen_subcommand_from rm" -l force -d 'Remove without confirmation'

# keyring subcommands
complete -c passvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c passvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c passvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
