package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/rings-p2p/internal/entity"
	"github.com/rocketscienceinc/rings-p2p/internal/replication"
	"github.com/rocketscienceinc/rings-p2p/internal/rings"
	"github.com/rocketscienceinc/rings-p2p/internal/service"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

const usage = `commands:
  start                      start the game (host)
  select <small|medium|large>
  place <row> <col> [size]   or: place cell-<row>-<col> [size]
  pass                       skip a turn you cannot play
  state                      print the room
  bot on|off                 let the bot play for you
  quit`

type peer interface {
	Snapshot() *entity.Room
	StartGame() error
	SelectRingSize(size entity.Size) rings.Result
	ClickCell(cellID string) (rings.Result, error)
	PlaceRing(cellID string, size entity.Size) (rings.Result, error)
	PassTurn() (rings.Result, error)
	Subscribe(observer func(replication.Event))
}

// Console drives one peer from line commands.
type Console struct {
	logger   *slog.Logger
	peer     peer
	bot      service.BotService
	playerID string

	outMu sync.Mutex
	out   io.Writer

	botMu sync.Mutex
	botOn bool
	wake  chan struct{}
}

func New(logger *slog.Logger, peer peer, bot service.BotService, playerID string, out io.Writer) *Console {
	that := &Console{
		logger:   logger.With("component", "console"),
		peer:     peer,
		bot:      bot,
		playerID: playerID,
		out:      out,
		wake:     make(chan struct{}, 1),
	}

	peer.Subscribe(that.observe)

	return that
}

// SetBot switches the bot on or off and lets it move right away if it is our turn.
func (that *Console) SetBot(on bool) {
	that.botMu.Lock()
	that.botOn = on
	that.botMu.Unlock()

	if on {
		that.nudge()
	}
}

func (that *Console) botEnabled() bool {
	that.botMu.Lock()
	defer that.botMu.Unlock()

	return that.botOn
}

// Run reads commands from in until quit, EOF or ctx is done.
func (that *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	that.printf("%s\n", usage)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}
			return nil
		case <-that.wake:
			that.playBot()
		case line := <-lines:
			quit, err := that.Execute(line)
			if err != nil {
				that.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute runs one command line. It reports true when the user asked to quit.
func (that *Console) Execute(line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		that.printf("%s\n", usage)
	case "state":
		that.printf("%s", Render(that.peer.Snapshot()))
	case "start":
		if err := that.peer.StartGame(); err != nil {
			return false, err
		}
	case "select":
		return false, that.selectSize(fields[1:])
	case "place":
		return false, that.place(fields[1:])
	case "pass":
		result, err := that.peer.PassTurn()
		if err != nil {
			return false, err
		}
		that.report(result)
	case "bot":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			return false, fmt.Errorf("%w: bot on|off", ErrUsage)
		}
		that.SetBot(fields[1] == "on")
		that.printf("bot %s\n", fields[1])
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}

	return false, nil
}

func (that *Console) selectSize(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: select <small|medium|large>", ErrUsage)
	}

	size, err := entity.ParseSize(args[0])
	if err != nil {
		return err
	}

	that.report(that.peer.SelectRingSize(size))

	return nil
}

func (that *Console) place(args []string) error {
	cellID, rest, err := parseCell(args)
	if err != nil {
		return err
	}

	var result rings.Result

	switch len(rest) {
	case 0:
		result, err = that.peer.ClickCell(cellID)
	case 1:
		size, parseErr := entity.ParseSize(rest[0])
		if parseErr != nil {
			return parseErr
		}
		result, err = that.peer.PlaceRing(cellID, size)
	default:
		return fmt.Errorf("%w: place <row> <col> [size]", ErrUsage)
	}

	if err != nil {
		return err
	}

	that.report(result)

	return nil
}

func parseCell(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: place <row> <col> [size]", ErrUsage)
	}

	if strings.HasPrefix(args[0], "cell-") {
		if _, _, err := entity.ParseCellID(args[0]); err != nil {
			return "", nil, err
		}
		return args[0], args[1:], nil
	}

	if len(args) < 2 {
		return "", nil, fmt.Errorf("%w: place <row> <col> [size]", ErrUsage)
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad row %q", ErrUsage, args[0])
	}

	col, err := strconv.Atoi(args[1])
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad column %q", ErrUsage, args[1])
	}

	return entity.CellID(row, col), args[2:], nil
}

func (that *Console) report(result rings.Result) {
	if !result.Accepted() && result != replication.ResultForwarded {
		that.printf("rejected: %s\n", result)
	}
}

func (that *Console) observe(event replication.Event) {
	switch event.Kind {
	case replication.EventJoinRejected:
		that.printf("join rejected: %s\n", event.Reason)
	case replication.EventHostLost:
		that.printf("lost the host, the game cannot continue\n")
	default:
		that.printf("%s", Render(event.Room))
	}

	if event.Kind == replication.EventGameChanged && that.botEnabled() {
		that.nudge()
	}
}

func (that *Console) nudge() {
	select {
	case that.wake <- struct{}{}:
	default:
	}
}

// playBot makes the bot's move when the local player is up.
func (that *Console) playBot() {
	log := that.logger.With("method", "playBot")

	if !that.botEnabled() {
		return
	}

	room := that.peer.Snapshot()
	if room == nil {
		return
	}

	move, err := that.bot.ChooseMove(room.Game, that.playerID)
	if errors.Is(err, service.ErrNoAvailableMoves) {
		result, passErr := that.peer.PassTurn()
		if passErr != nil {
			log.Warn("bot pass failed", "error", passErr)
			return
		}

		log.Info("bot passed", "result", result)

		return
	}

	if err != nil {
		log.Debug("bot is waiting", "reason", err)
		return
	}

	result, err := that.peer.PlaceRing(move.CellID, move.Size)
	if err != nil {
		log.Warn("bot move failed", "error", err)
		return
	}

	log.Info("bot moved", "cell", move.CellID, "size", move.Size, "result", result)
}

func (that *Console) printf(format string, args ...any) {
	that.outMu.Lock()
	defer that.outMu.Unlock()

	_, _ = fmt.Fprintf(that.out, format, args...)
}
