package main

const bashCompletion = `_clawpulse() {
    local cur prev commands
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    commands="push pull status wipe version help completion"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
        return 0
    fi

    case "${prev}" in
        push)
            COMPREPLY=($(compgen -W "--ttl --token --secret --base-url --json --text --file --help" -- "${cur}"))
            ;;
        pull|status|wipe)
            COMPREPLY=($(compgen -W "--token --secret --base-url --json --help" -- "${cur}"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            ;;
    esac
    return 0
}
complete -F _clawpulse clawpulse
`

const zshCompletion = `#compdef clawpulse

_clawpulse() {
    local -a commands
    commands=(
        'push:Encrypt and upload a datapoint'
        'pull:Fetch and decrypt datapoints'
        'status:Show datapoint count and timestamps'
        'wipe:Delete everything stored under the token'
        'version:Show version'
        'help:Show help'
        'completion:Output shell completion script'
    )

    _arguments -C \
        '1:command:->command' \
        '*::arg:->args'

    case "$state" in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                push)
                    _arguments \
                        '--ttl[Retention in hours]:hours:' \
                        '--token[Sync token]:token:' \
                        '--secret[Shared secret]:secret:' \
                        '--base-url[Server URL]:url:' \
                        '--json[Output as JSON]' \
                        '--text[Datapoint text]:text:' \
                        '--file[Datapoint file]:file:_files' \
                        '--help[Show help]'
                    ;;
                pull|status|wipe)
                    _arguments \
                        '--token[Sync token]:token:' \
                        '--secret[Shared secret]:secret:' \
                        '--base-url[Server URL]:url:' \
                        '--json[Output as JSON]' \
                        '--help[Show help]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_clawpulse
`

const fishCompletion = `complete -c clawpulse -f
complete -c clawpulse -n '__fish_use_subcommand' -a push -d 'Encrypt and upload a datapoint'
complete -c clawpulse -n '__fish_use_subcommand' -a pull -d 'Fetch and decrypt datapoints'
complete -c clawpulse -n '__fish_use_subcommand' -a status -d 'Show datapoint count and timestamps'
complete -c clawpulse -n '__fish_use_subcommand' -a wipe -d 'Delete everything stored under the token'
complete -c clawpulse -n '__fish_use_subcommand' -a version -d 'Show version'
complete -c clawpulse -n '__fish_use_subcommand' -a help -d 'Show help'
complete -c clawpulse -n '__fish_use_subcommand' -a completion -d 'Output shell completion script'

complete -c clawpulse -n '__fish_seen_subcommand_from push' -l ttl -d 'Retention in hours'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l token -d 'Sync token'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l secret -d 'Shared secret'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l base-url -d 'Server URL'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l json -d 'Output as JSON'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l text -d 'Datapoint text'
complete -c clawpulse -n '__fish_seen_subcommand_from push' -l file -d 'Datapoint file' -F

complete -c clawpulse -n '__fish_seen_subcommand_from pull status wipe' -l token -d 'Sync token'
complete -c clawpulse -n '__fish_seen_subcommand_from pull status wipe' -l secret -d 'Shared secret'
complete -c clawpulse -n '__fish_seen_subcommand_from pull status wipe' -l base-url -d 'Server URL'
complete -c clawpulse -n '__fish_seen_subcommand_from pull status wipe' -l json -d 'Output as JSON'

complete -c clawpulse -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'
`
