package parser

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/aclindsa/ofxgo"
)

// OFXParser reads OFX/QFX investment statements: stock buys and sells,
// income, splits, and transfers.
type OFXParser struct{}

// NewOFXParser creates an OFX investment statement parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{}
}

// Name implements Parser.
func (p *OFXParser) Name() string { return "ofx" }

// Detect implements Parser.
func (p *OFXParser) Detect(path string) bool {
	ext := strings.ToLower(path)
	if !strings.HasSuffix(ext, ".ofx") && !strings.HasSuffix(ext, ".qfx") {
		return false
	}
	_, err := p.parseResponse(path)
	return err == nil
}

// ParseFile implements Parser.
func (p *OFXParser) ParseFile(path string) ([]model.Transaction, error) {
	resp, err := p.parseResponse(path)
	if err != nil {
		return nil, err
	}

	securities := indexSecurities(resp)

	var transactions []model.Transaction
	for _, msg := range resp.InvStmt {
		stmt, ok := msg.(*ofxgo.InvStatementResponse)
		if !ok || stmt.InvTranList == nil {
			continue
		}
		currency := stmt.CurDef.String()
		for _, itxn := range stmt.InvTranList.InvTransactions {
			txns, ok := p.convert(itxn, securities, currency)
			if !ok {
				continue
			}
			transactions = append(transactions, txns...)
		}
	}
	return transactions, nil
}

func (p *OFXParser) parseResponse(path string) (*ofxgo.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	resp, err := ofxgo.ParseResponse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// security is the label/ISIN pair resolved from the OFX security list.
type security struct {
	symbol string
	isin   string
}

// indexSecurities maps unique IDs to labels using the statement's
// security list. When the unique ID type is ISIN, it doubles as the
// transaction's ISIN.
func indexSecurities(resp *ofxgo.Response) map[string]security {
	out := make(map[string]security)
	record := func(info ofxgo.SecInfo) {
		id := string(info.SecID.UniqueID)
		if id == "" {
			return
		}
		sec := security{symbol: string(info.Ticker)}
		if sec.symbol == "" {
			sec.symbol = string(info.SecName)
		}
		if strings.EqualFold(string(info.SecID.UniqueIDType), "ISIN") {
			sec.isin = id
		}
		out[id] = sec
	}

	for _, msg := range resp.SecList {
		list, ok := msg.(*ofxgo.SecurityList)
		if !ok {
			continue
		}
		for _, s := range list.Securities {
			switch info := s.(type) {
			case ofxgo.StockInfo:
				record(info.SecInfo)
			case ofxgo.MFInfo:
				record(info.SecInfo)
			case ofxgo.DebtInfo:
				record(info.SecInfo)
			case ofxgo.OptInfo:
				record(info.SecInfo)
			case ofxgo.OtherInfo:
				record(info.SecInfo)
			}
		}
	}
	return out
}

// convert maps one OFX investment transaction to our model. An OFX
// split carries both sides of the event in one record, so it expands to
// the two SPLIT transactions the ledger's pairing protocol expects.
func (p *OFXParser) convert(itxn ofxgo.InvTransaction, securities map[string]security, currency string) ([]model.Transaction, bool) {
	switch tran := itxn.(type) {
	case ofxgo.BuyStock:
		return p.trade(model.TypeBuy, tran.InvBuy.InvTran, tran.InvBuy.SecID, tran.InvBuy.Units,
			tran.InvBuy.UnitPrice, tran.InvBuy.Commission, securities, currency)
	case ofxgo.BuyMF:
		return p.trade(model.TypeBuy, tran.InvBuy.InvTran, tran.InvBuy.SecID, tran.InvBuy.Units,
			tran.InvBuy.UnitPrice, tran.InvBuy.Commission, securities, currency)
	case ofxgo.SellStock:
		return p.trade(model.TypeSell, tran.InvSell.InvTran, tran.InvSell.SecID, tran.InvSell.Units,
			tran.InvSell.UnitPrice, tran.InvSell.Commission, securities, currency)
	case ofxgo.SellMF:
		return p.trade(model.TypeSell, tran.InvSell.InvTran, tran.InvSell.SecID, tran.InvSell.Units,
			tran.InvSell.UnitPrice, tran.InvSell.Commission, securities, currency)
	case ofxgo.Income:
		sec := securities[string(tran.SecID.UniqueID)]
		total, _ := tran.Total.Float64()
		return []model.Transaction{{
			Date:     tran.InvTran.DtTrade.Time,
			Symbol:   sec.symbol,
			ISIN:     sec.isin,
			Type:     model.TypeDividend,
			Currency: currency,
			Quantity: 1,
			Price:    abs(total),
		}}, true
	case ofxgo.Split:
		sec := securities[string(tran.SecID.UniqueID)]
		oldUnits, _ := tran.OldUnits.Float64()
		newUnits, _ := tran.NewUnits.Float64()
		base := model.Transaction{
			Date:     tran.InvTran.DtTrade.Time,
			Symbol:   sec.symbol,
			ISIN:     sec.isin,
			Type:     model.TypeSplit,
			Currency: currency,
		}
		pre, post := base, base
		pre.Quantity = abs(oldUnits)
		post.Quantity = abs(newUnits)
		return []model.Transaction{pre, post}, true
	case ofxgo.Transfer:
		sec := securities[string(tran.SecID.UniqueID)]
		units, _ := tran.Units.Float64()
		return []model.Transaction{{
			Date:     tran.InvTran.DtTrade.Time,
			Symbol:   sec.symbol,
			ISIN:     sec.isin,
			Type:     model.TypeMove,
			Currency: currency,
			Quantity: abs(units),
		}}, true
	default:
		slog.Debug("Skipping unsupported OFX investment transaction",
			"type", fmt.Sprintf("%T", itxn))
		return nil, false
	}
}

func (p *OFXParser) trade(transactionType model.TransactionType, invTran ofxgo.InvTran, secID ofxgo.SecurityID,
	units, unitPrice, commission ofxgo.Amount, securities map[string]security, currency string) ([]model.Transaction, bool) {
	sec := securities[string(secID.UniqueID)]
	if sec.symbol == "" {
		sec.symbol = string(secID.UniqueID)
	}
	quantity, _ := units.Float64()
	price, _ := unitPrice.Float64()
	fee, _ := commission.Float64()

	return []model.Transaction{{
		Date:     invTran.DtTrade.Time,
		Symbol:   sec.symbol,
		ISIN:     sec.isin,
		Type:     transactionType,
		Currency: currency,
		Quantity: abs(quantity),
		Price:    abs(price),
		Fee:      abs(fee),
	}}, true
}
